package i18n

import (
	"fmt"
	"io/fs"
	"maps"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Catalog holds all loaded messages. Lookups read an immutable snapshot,
// so a Reload never races with in-flight requests.
type Catalog struct {
	fsys        fs.FS
	defaultLang string
	snapshot    atomic.Pointer[snapshot]
}

type snapshot struct {
	// Key format: "lang:key.path"
	messages  map[string]string
	languages []string
}

// NewCatalog loads all message files from fsys. The default language is
// the fallback of last resort for every lookup.
func NewCatalog(fsys fs.FS, defaultLang string) (*Catalog, error) {
	if defaultLang == "" {
		return nil, ErrEmptyLanguage
	}

	c := &Catalog{fsys: fsys, defaultLang: defaultLang}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads all message files and swaps the snapshot atomically.
// On error the previous snapshot stays in place.
func (c *Catalog) Reload() error {
	snap, err := load(c.fsys, c.defaultLang)
	if err != nil {
		return err
	}
	c.snapshot.Store(snap)
	return nil
}

// Languages returns the loaded languages, default language first.
func (c *Catalog) Languages() []string {
	return c.snapshot.Load().languages
}

// DefaultLanguage returns the fallback language.
func (c *Catalog) DefaultLanguage() string {
	return c.defaultLang
}

// Resolve negotiates the request language from an Accept-Language
// header value against the loaded languages.
func (c *Catalog) Resolve(acceptLanguage string) string {
	return ParseAcceptLanguage(acceptLanguage, c.Languages())
}

// For returns the message view for one language.
func (c *Catalog) For(lang string) *Messages {
	return &Messages{lang: lang, catalog: c}
}

func load(fsys fs.FS, defaultLang string) (*snapshot, error) {
	snap := &snapshot{messages: make(map[string]string)}
	seen := map[string]bool{}

	err := fs.WalkDir(fsys, ".", func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(path.Ext(filePath))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		lang := strings.ToLower(strings.TrimSuffix(path.Base(filePath), path.Ext(filePath)))
		if lang == "" {
			return fmt.Errorf("%w: %q has no language name", ErrInvalidFile, filePath)
		}

		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return fmt.Errorf("reading %q: %w", filePath, err)
		}

		var nested map[string]any
		if err := yaml.Unmarshal(data, &nested); err != nil {
			return fmt.Errorf("%w: parsing %q: %s", ErrInvalidFile, filePath, err)
		}

		for key, value := range flatten(nested, "") {
			snap.messages[lang+":"+key] = value
		}
		seen[lang] = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Default language first, the rest alphabetical.
	delete(seen, defaultLang)
	rest := make([]string, 0, len(seen))
	for lang := range seen {
		rest = append(rest, lang)
	}
	sort.Strings(rest)
	snap.languages = append([]string{defaultLang}, rest...)

	return snap, nil
}

func flatten(data map[string]any, prefix string) map[string]string {
	result := make(map[string]string)

	for key, value := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		switch v := value.(type) {
		case string:
			result[fullKey] = v
		case map[string]any:
			maps.Copy(result, flatten(v, fullKey))
		default:
			result[fullKey] = fmt.Sprintf("%v", v)
		}
	}

	return result
}

// baseLanguage strips the region from a language tag ("en-US" to "en").
func baseLanguage(lang string) string {
	if i := strings.IndexByte(lang, '-'); i > 0 {
		return lang[:i]
	}
	return lang
}
