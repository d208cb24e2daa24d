package model

import internalmodel "github.com/goliatone/go-formbuilder/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

const (
	FieldTypeString = internalmodel.FieldTypeString
	FieldTypeNumber = internalmodel.FieldTypeNumber
	FieldTypeSelect = internalmodel.FieldTypeSelect
)

const (
	ValidationRuleRequired = internalmodel.ValidationRuleRequired
	ValidationRuleNumber   = internalmodel.ValidationRuleNumber
	ValidationRuleMin      = internalmodel.ValidationRuleMin
	ValidationRuleMax      = internalmodel.ValidationRuleMax
)

type ValidationRule = internalmodel.ValidationRule
type Field = internalmodel.Field
type FormModel = internalmodel.FormModel

// FormatFloat renders a number bound the way validation messages show it.
func FormatFloat(v float64) string {
	return internalmodel.FormatFloat(v)
}
