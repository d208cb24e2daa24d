package render

import (
	"context"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Renderer converts a FormModel into a byte representation (HTML, JSON
// answers from a terminal session, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.FormModel, options RenderOptions) ([]byte, error)
}
