package internal

import "io"

// TemplateEngine renders a named template with its data. The pipeline
// stays agnostic of the engine; anything that can write HTML for a
// template path fits.
type TemplateEngine interface {
	Render(w io.Writer, template string, data map[string]any) error
}
