package model

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeNumber FieldType = "number"
	FieldTypeSelect FieldType = "select"
)

const (
	ValidationRuleRequired = "required"
	ValidationRuleNumber   = "number"
	ValidationRuleMin      = "min"
	ValidationRuleMax      = "max"
)

// ValidationRule is a single constraint applied to a field. Numeric bounds
// keep their threshold, already formatted for messages, in Params["value"].
// Rules are listed in the order they are checked.
type ValidationRule struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// Field models one visible input of the rendered form.
type Field struct {
	Name        string            `json:"name"`
	Type        FieldType         `json:"type"`
	Required    bool              `json:"required"`
	Label       string            `json:"label"`
	Description string            `json:"description,omitempty"`
	Unit        string            `json:"unit,omitempty"`
	Enum        []string          `json:"enum,omitempty"`
	Validations []ValidationRule  `json:"validations,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Rule returns the rule of kind, if present.
func (f Field) Rule(kind string) (ValidationRule, bool) {
	for _, rule := range f.Validations {
		if rule.Kind == kind {
			return rule, true
		}
	}
	return ValidationRule{}, false
}

// FormModel is the top-level representation renderers consume.
type FormModel struct {
	OperationID string            `json:"operationId"`
	Endpoint    string            `json:"endpoint"`
	Method      string            `json:"method"`
	Summary     string            `json:"summary,omitempty"`
	Fields      []Field           `json:"fields"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}
