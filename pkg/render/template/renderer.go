package template

import (
	"io"
)

// TemplateRenderer is the seam renderers use to execute named templates.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
}
