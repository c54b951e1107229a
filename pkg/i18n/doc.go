// Package i18n resolves the request language from the Accept-Language
// header and serves message lookups from a reloadable catalog.
//
// Message files are YAML, one per language ("en.yaml", "de.yaml"),
// with nested keys flattened to dot paths. Lookups fall back from the
// requested language to its base language ("en-US" to "en") and then
// to the default language; a key missing everywhere is echoed back, so
// a half-translated catalog never blanks out a page.
package i18n
