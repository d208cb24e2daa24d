package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Transformer mutates a FormModel after it is built and before it is rendered.
type Transformer interface {
	Transform(ctx context.Context, form *model.FormModel) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *model.FormModel) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *model.FormModel) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// PresetTransformer applies declarative overrides loaded from a YAML (or
// JSON) document:
//
//	summary: Patient intake
//	metadata:
//	  theme: compact
//	fields:
//	  age:
//	    label: Age at admission
//	    unit: Years
//
// Presets written against an older question list may name fields that no
// longer exist; those entries are ignored unless Strict is set.
type PresetTransformer struct {
	document presetDocument
	Strict   bool
}

type presetDocument struct {
	Summary  string                 `yaml:"summary"`
	Metadata map[string]string      `yaml:"metadata"`
	Fields   map[string]fieldPreset `yaml:"fields"`
}

type fieldPreset struct {
	Label       string            `yaml:"label"`
	Description string            `yaml:"description"`
	Unit        string            `yaml:"unit"`
	Metadata    map[string]string `yaml:"metadata"`
}

// NewPresetTransformer parses a preset document.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the preset onto form.
func (t *PresetTransformer) Transform(ctx context.Context, form *model.FormModel) error {
	if form == nil {
		return errors.New("preset transformer: form model is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if summary := strings.TrimSpace(t.document.Summary); summary != "" {
		form.Summary = summary
	}
	form.Metadata = mergeStringMap(form.Metadata, t.document.Metadata)

	for name, patch := range t.document.Fields {
		idx := fieldIndex(form.Fields, name)
		if idx < 0 {
			if t.Strict {
				return fmt.Errorf("preset transformer: field %q not found", name)
			}
			continue
		}
		applyFieldPreset(&form.Fields[idx], patch)
	}
	return nil
}

func applyFieldPreset(field *model.Field, patch fieldPreset) {
	if label := strings.TrimSpace(patch.Label); label != "" {
		field.Label = label
	}
	if description := strings.TrimSpace(patch.Description); description != "" {
		field.Description = description
	}
	if unit := strings.TrimSpace(patch.Unit); unit != "" && field.Type == model.FieldTypeNumber {
		field.Unit = unit
	}
	field.Metadata = mergeStringMap(field.Metadata, patch.Metadata)
}

func fieldIndex(fields []model.Field, name string) int {
	for idx := range fields {
		if fields[idx].Name == name {
			return idx
		}
	}
	return -1
}

func mergeStringMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
