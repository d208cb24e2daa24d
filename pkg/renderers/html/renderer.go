// Package html renders the builder page and the form preview as server-side
// HTML using pongo2 templates. Helper text is passed through a bluemonday
// policy before it reaches the page.
package html

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/notify"
	"github.com/goliatone/go-formbuilder/pkg/question"
	"github.com/goliatone/go-formbuilder/pkg/render"
	rendertemplate "github.com/goliatone/go-formbuilder/pkg/render/template"
	"github.com/goliatone/go-formbuilder/pkg/render/template/pongo"
)

const (
	formTemplate    = "templates/form"
	builderTemplate = "templates/builder"
)

// StatusLabels are the badge texts shown next to each question.
var StatusLabels = map[question.SaveStatus]string{
	question.StatusInitial: "Incomplete question",
	question.StatusSaving:  "Saving...",
	question.StatusSaved:   "Saved",
	question.StatusError:   "Save failed",
}

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	policy           *bluemonday.Policy
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithPolicy overrides the sanitiser applied to helper text. Defaults to a
// policy that strips every tag.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

type Renderer struct {
	templates rendertemplate.TemplateRenderer
}

var _ render.Renderer = (*Renderer)(nil)

var (
	sanitizeMu     sync.Mutex
	sanitizePolicy = bluemonday.StrictPolicy()
)

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.policy != nil {
		sanitizeMu.Lock()
		sanitizePolicy = cfg.policy
		sanitizeMu.Unlock()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(
			pongo.WithFS(cfg.templateFS),
			pongo.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	// Filters are process wide; a second renderer reuses the first
	// registration.
	if err := renderer.RegisterFilter("sanitize", sanitize); err != nil && !errors.Is(err, pongo.ErrFilterExists) {
		return nil, fmt.Errorf("html renderer: register sanitize filter: %w", err)
	}

	return &Renderer{templates: renderer}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render produces the preview page for form.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mapping := render.MapErrorPayload(form, opts.Errors)
	data := map[string]any{
		"form":        form,
		"fields":      fieldViews(form, opts.Values, mapping.Fields),
		"form_errors": render.MergeFormErrors(opts.FormErrors, mapping.Form...),
		"read_only":   opts.ReadOnly,
		"hidden":      render.SortedHiddenFields(opts.Hidden),
	}
	out, err := r.templates.Render(formTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render form: %w", err)
	}
	return []byte(out), nil
}

// BuilderPage is what the builder view shows.
type BuilderPage struct {
	Questions     []question.Question
	Notifications []notify.Notification
}

// RenderBuilder produces the builder page.
func (r *Renderer) RenderBuilder(ctx context.Context, page BuilderPage) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	labels, err := json.Marshal(StatusLabels)
	if err != nil {
		return nil, fmt.Errorf("html renderer: encode status labels: %w", err)
	}
	types := make([]map[string]string, 0, len(question.Types))
	for _, t := range question.Types {
		s := string(t)
		types = append(types, map[string]string{"value": s, "label": strings.ToUpper(s[:1]) + s[1:]})
	}

	data := map[string]any{
		"questions":     questionViews(page.Questions),
		"toasts":        page.Notifications,
		"types":         types,
		"number_types":  question.NumberTypes,
		"status_labels": string(labels),
	}
	out, err := r.templates.Render(builderTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render builder: %w", err)
	}
	return []byte(out), nil
}

func sanitize(input any, _ any) (any, error) {
	text, ok := input.(string)
	if !ok {
		text = fmt.Sprint(input)
	}
	sanitizeMu.Lock()
	policy := sanitizePolicy
	sanitizeMu.Unlock()
	return pongo.Safe(policy.Sanitize(text)), nil
}
