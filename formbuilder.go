// Package formbuilder is the quick-start entry point: build a question
// collection with auto-save, or render a list of questions as an HTML form.
package formbuilder

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-formbuilder/pkg/builder"
	"github.com/goliatone/go-formbuilder/pkg/orchestrator"
	"github.com/goliatone/go-formbuilder/pkg/question"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
)

// Question aliases question.Question.
type Question = question.Question

// RenderOptions describes per-request overrides that renderers can use to
// prefill values or surface validation errors.
type RenderOptions = render.RenderOptions

// NewCollection exposes builder.New from the top-level module.
func NewCollection(options ...builder.Option) *builder.Collection {
	return builder.New(options...)
}

// NewOrchestrator exposes the preview pipeline constructor.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML renders the visible questions as a fillable HTML form.
func GenerateHTML(ctx context.Context, questions []Question, opts RenderOptions, options ...orchestrator.Option) ([]byte, error) {
	if questions == nil {
		questions = []Question{}
	}
	result, err := orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Questions:     questions,
		RenderOptions: opts,
	})
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
