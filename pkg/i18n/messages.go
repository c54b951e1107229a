package i18n

import (
	"fmt"
	"maps"
	"strings"
)

// M holds placeholder values for message templates.
type M map[string]any

// Messages is the per-request view of the catalog, pinned to the
// negotiated language.
type Messages struct {
	lang    string
	catalog *Catalog
}

// Language returns the negotiated language of this view.
func (m *Messages) Language() string {
	return m.lang
}

// Get looks up a message key, falling back from the view's language to
// its base language and then to the catalog default. A key missing
// everywhere is returned as-is.
func (m *Messages) Get(key string, placeholders ...M) string {
	snap := m.catalog.snapshot.Load()

	lang := strings.ToLower(m.lang)
	candidates := []string{lang}
	if base := baseLanguage(lang); base != lang {
		candidates = append(candidates, base)
	}
	if def := m.catalog.defaultLang; def != lang && def != baseLanguage(lang) {
		candidates = append(candidates, def)
	}

	for _, candidate := range candidates {
		if msg, ok := snap.messages[candidate+":"+key]; ok {
			return replacePlaceholders(msg, placeholders...)
		}
	}
	return key
}

// replacePlaceholders substitutes {{name}} markers. Unknown markers
// stay untouched.
func replacePlaceholders(template string, placeholders ...M) string {
	if len(placeholders) == 0 {
		return template
	}

	merged := make(M)
	for _, p := range placeholders {
		maps.Copy(merged, p)
	}

	result := template
	for key, value := range merged {
		result = strings.ReplaceAll(result, "{{"+key+"}}", fmt.Sprintf("%v", value))
	}
	return result
}
