package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/question"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
)

// Source supplies the question list to preview. store.Store satisfies it.
type Source interface {
	Read(ctx context.Context) ([]question.Question, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]question.Question, error)

// Read calls fn.
func (fn SourceFunc) Read(ctx context.Context) ([]question.Question, error) {
	return fn(ctx)
}

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithSource sets where questions come from when a request carries none.
func WithSource(source Source) Option {
	return func(o *Orchestrator) {
		o.source = source
	}
}

// WithModelBuilder injects a custom form model builder.
func WithModelBuilder(builder model.Builder) Option {
	return func(o *Orchestrator) {
		o.builder = builder
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithTransformers registers transformers applied in order to every built
// form.
func WithTransformers(transformers ...Transformer) Option {
	return func(o *Orchestrator) {
		o.transformers = append(o.transformers, transformers...)
	}
}

// Orchestrator turns the builder's questions into rendered previews. With no
// options it builds with the default form options and renders HTML.
type Orchestrator struct {
	source       Source
	builder      model.Builder
	registry     *render.Registry
	transformers []Transformer
	initErr      error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.builder == nil {
		o.builder = model.NewBuilder()
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := html.New()
		if err != nil {
			o.initErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		} else {
			o.registry.MustRegister(renderer)
		}
	}
	return o
}

// Registry exposes the renderer registry.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

// Request describes one preview.
type Request struct {
	// Questions overrides the configured source when non-nil.
	Questions []question.Question

	// Renderer names the renderer to use; empty selects the registry default.
	Renderer string

	RenderOptions render.RenderOptions
}

// Result is a rendered preview.
type Result struct {
	Form        model.FormModel
	Body        []byte
	ContentType string
}

// Build reads the questions for req and returns the transformed form model
// without rendering it.
func (o *Orchestrator) Build(ctx context.Context, req Request) (model.FormModel, error) {
	if ctx == nil {
		return model.FormModel{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return model.FormModel{}, err
	}

	questions := req.Questions
	if questions == nil {
		if o.source == nil {
			return model.FormModel{}, errors.New("orchestrator: questions or source is required")
		}
		var err error
		questions, err = o.source.Read(ctx)
		if err != nil {
			return model.FormModel{}, fmt.Errorf("orchestrator: read questions: %w", err)
		}
	}

	form := o.builder.Build(questions)
	for _, t := range o.transformers {
		if t == nil {
			continue
		}
		if err := t.Transform(ctx, &form); err != nil {
			return model.FormModel{}, fmt.Errorf("orchestrator: transform form: %w", err)
		}
	}
	return form, nil
}

// Generate builds the form for req and renders it.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	if o.initErr != nil {
		return Result{}, o.initErr
	}
	form, err := o.Build(ctx, req)
	if err != nil {
		return Result{}, err
	}
	body, contentType, err := o.registry.Render(ctx, req.Renderer, form, req.RenderOptions)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: %w", err)
	}
	return Result{Form: form, Body: body, ContentType: contentType}, nil
}
