// Package tui fills in the form preview from a terminal. Each visible field
// becomes one prompt; answers are checked with the same rules as the HTML
// preview and re-asked until they pass.
package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/validation"
)

const (
	defaultMaxAttempts = 5
	skipOption         = "(no answer)"
)

// Renderer implements render.Renderer for terminal-driven sessions. Its
// output is the accepted answers, not markup.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
	out          io.Writer
	maxAttempts  int
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) *Renderer {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		out:          os.Stdout,
		maxAttempts:  defaultMaxAttempts,
		theme:        Theme{ErrorPrefix: "✗ "},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts for every field in order and returns the accepted answers.
// opts.Values pre-fill the prompts; opts.Errors are shown before the first
// prompt of the matching field.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	if form.Summary != "" {
		if err := r.driver.Info(ctx, r.theme.InfoPrefix+form.Summary); err != nil {
			return nil, err
		}
	}

	values := make(map[string]string, len(form.Fields))
	for _, field := range form.Fields {
		for _, message := range opts.Errors[field.Name] {
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+field.Label+": "+message); err != nil {
				return nil, err
			}
		}
		answer, err := r.ask(ctx, field, opts.Values[field.Name])
		if err != nil {
			return nil, fmt.Errorf("tui: field %q: %w", field.Name, err)
		}
		values[field.Name] = answer
	}

	result := validation.ValidateForm(form, values)
	if !result.Valid {
		// Only reachable with a driver that bypasses ask's checks.
		return nil, fmt.Errorf("tui: submission rejected: %v", result.Errors)
	}
	return r.serialize(form, result.Values)
}

func (r *Renderer) ask(ctx context.Context, field model.Field, prefill string) (string, error) {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		answer, err := r.prompt(ctx, field, prefill)
		if err != nil {
			return "", err
		}
		message := validation.ValidateField(field, answer)
		if message == "" {
			return strings.TrimSpace(answer), nil
		}
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+message); err != nil {
			return "", err
		}
		prefill = answer
	}
	return "", ErrTooManyAttempts
}

func (r *Renderer) prompt(ctx context.Context, field model.Field, prefill string) (string, error) {
	message := field.Label
	if field.Required {
		message += " *"
	}
	if field.Type == model.FieldTypeNumber && field.Unit != "" {
		message += " (" + field.Unit + ")"
	}

	if field.Type == model.FieldTypeSelect && len(field.Enum) > 0 {
		options := append([]string(nil), field.Enum...)
		if !field.Required {
			options = append([]string{skipOption}, options...)
		}
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      options,
			DefaultIndex: indexOf(options, prefill),
			Help:         field.Description,
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(options) || options[idx] == skipOption {
			return "", nil
		}
		return options[idx], nil
	}

	return r.driver.Input(ctx, InputConfig{
		Message: message,
		Default: prefill,
		Help:    field.Description,
		Validator: func(answer string) error {
			if msg := validation.ValidateField(field, answer); msg != "" {
				return errors.New(msg)
			}
			return nil
		},
	})
}

func (r *Renderer) serialize(form model.FormModel, values map[string]string) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		encoded := url.Values{}
		for _, field := range form.Fields {
			encoded.Set(field.Name, values[field.Name])
		}
		return []byte(encoded.Encode()), nil
	case OutputFormatPrettyText:
		var buf bytes.Buffer
		for _, field := range form.Fields {
			value := values[field.Name]
			if value != "" && field.Unit != "" && field.Type == model.FieldTypeNumber {
				value += " " + field.Unit
			}
			fmt.Fprintf(&buf, "%s: %s\n", field.Label, value)
		}
		return buf.Bytes(), nil
	default:
		out, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode answers: %w", err)
		}
		return out, nil
	}
}
