package model

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/question"
)

// Builder converts the builder's question list into a form model.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	opts := defaultOptions()
	if options.OperationID != "" {
		opts.OperationID = options.OperationID
	}
	if options.Endpoint != "" {
		opts.Endpoint = options.Endpoint
	}
	if options.Method != "" {
		opts.Method = options.Method
	}
	if options.Summary != "" {
		opts.Summary = options.Summary
	}
	return &Builder{opts: opts}
}

// Build keeps question order, drops hidden questions and labels unlabeled
// ones by their position in the full list.
func (b *Builder) Build(questions []question.Question) FormModel {
	form := FormModel{
		OperationID: b.opts.OperationID,
		Endpoint:    b.opts.Endpoint,
		Method:      strings.ToUpper(b.opts.Method),
		Summary:     b.opts.Summary,
		Fields:      make([]Field, 0, len(questions)),
	}

	hidden := 0
	for idx, q := range questions {
		if q.Hidden {
			hidden++
			continue
		}
		form.Fields = append(form.Fields, fieldFromQuestion(idx, q))
	}
	if hidden > 0 {
		form.Metadata = map[string]string{"hiddenFields": strconv.Itoa(hidden)}
	}
	return form
}

func fieldFromQuestion(idx int, q question.Question) Field {
	field := Field{
		Name:        q.ID,
		Type:        mapType(q.Type),
		Required:    q.Required,
		Label:       q.DisplayLabel(idx),
		Description: strings.TrimSpace(q.HelperText),
	}
	if q.Required {
		field.Validations = append(field.Validations, ValidationRule{Kind: ValidationRuleRequired})
	}

	switch field.Type {
	case FieldTypeNumber:
		field.Unit = q.NumberType
		applyNumberValidations(&field, q)
	case FieldTypeSelect:
		field.Enum = append([]string(nil), q.Options...)
	}
	return field
}

func mapType(t question.Type) FieldType {
	switch t {
	case question.TypeNumber:
		return FieldTypeNumber
	case question.TypeSelect:
		return FieldTypeSelect
	default:
		return FieldTypeString
	}
}

// applyNumberValidations orders the rules number, min, max so the first
// failing check wins.
func applyNumberValidations(field *Field, q question.Question) {
	field.Validations = append(field.Validations, ValidationRule{Kind: ValidationRuleNumber})
	if q.Min != nil {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRuleMin,
			Params: map[string]string{"value": FormatFloat(*q.Min)},
		})
	}
	if q.Max != nil {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRuleMax,
			Params: map[string]string{"value": FormatFloat(*q.Max)},
		})
	}
}

// FormatFloat renders v in its shortest form: 10, 2.5, -0.125.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
