package internal

import "github.com/strandkit/strand/pkg/i18n"

// localeStage negotiates the request language from Accept-Language and
// pins the message view for the rest of the pipeline. Without a
// catalog the configured default language is pinned unconditionally.
type localeStage struct {
	catalog     *i18n.Catalog
	defaultLang string
}

func newLocaleStage(catalog *i18n.Catalog, defaultLang string) *localeStage {
	return &localeStage{catalog: catalog, defaultLang: defaultLang}
}

func (s *localeStage) Name() string { return "locale" }

func (s *localeStage) Process(c *Context) Outcome {
	if s.catalog == nil {
		c.language = s.defaultLang
		return Proceed()
	}
	lang := s.catalog.Resolve(c.Header("Accept-Language"))
	c.language = lang
	c.messages = s.catalog.For(lang)
	return Proceed()
}
