package question

import (
	"fmt"
	"strings"
)

// Type enumerates the question kinds the builder supports.
type Type string

const (
	TypeText   Type = "text"
	TypeNumber Type = "number"
	TypeSelect Type = "select"
)

// Types lists the supported question kinds in display order.
var Types = []Type{TypeText, TypeNumber, TypeSelect}

// Valid reports whether t is a known question kind.
func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeSelect:
		return true
	default:
		return false
	}
}

// ParseType normalises raw input into a Type.
func ParseType(raw string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", fmt.Errorf("question: unknown type %q", raw)
	}
	return t, nil
}

// SaveStatus tracks where a question sits in the auto-save pipeline. It is
// derived state; field edits never set it directly.
type SaveStatus string

const (
	StatusInitial SaveStatus = "initial"
	StatusSaving  SaveStatus = "saving"
	StatusSaved   SaveStatus = "saved"
	StatusError   SaveStatus = "error"
)

const (
	DefaultNumberType = "Years"
	DefaultMin        = 0
	DefaultMax        = 100
)

// NumberTypes lists the unit labels offered for number questions.
var NumberTypes = []string{"Years", "Other"}

// Question is the unit of edit and persistence. The JSON layout is the
// persisted snapshot format.
type Question struct {
	ID          string     `json:"id"`
	Type        Type       `json:"type"`
	Label       string     `json:"label"`
	HelperText  string     `json:"helperText,omitempty"`
	NumberType  string     `json:"numberType,omitempty"`
	Min         *float64   `json:"min,omitempty"`
	Max         *float64   `json:"max,omitempty"`
	Options     []string   `json:"options,omitempty"`
	Required    bool       `json:"required"`
	Hidden      bool       `json:"hidden"`
	SaveStatus  SaveStatus `json:"saveStatus"`
	Error       string     `json:"error,omitempty"`
	LastUpdated string     `json:"lastUpdated,omitempty"`
}

// New returns a question carrying the builder defaults.
func New(id string) Question {
	return Question{
		ID:         id,
		Type:       TypeText,
		NumberType: DefaultNumberType,
		Min:        Float(DefaultMin),
		Max:        Float(DefaultMax),
		SaveStatus: StatusInitial,
	}
}

// Valid reports whether the question may be saved: its trimmed label must be
// non-empty.
func (q Question) Valid() bool {
	return strings.TrimSpace(q.Label) != ""
}

// DisplayLabel falls back to a positional title for unlabeled questions.
func (q Question) DisplayLabel(index int) string {
	if label := strings.TrimSpace(q.Label); label != "" {
		return label
	}
	return fmt.Sprintf("Question %d", index+1)
}

// Clone returns a deep copy so callers never share bounds or options with the
// collection.
func (q Question) Clone() Question {
	out := q
	if q.Min != nil {
		out.Min = Float(*q.Min)
	}
	if q.Max != nil {
		out.Max = Float(*q.Max)
	}
	if q.Options != nil {
		out.Options = append([]string(nil), q.Options...)
	}
	return out
}

// CloneAll deep-copies a slice of questions preserving order.
func CloneAll(questions []Question) []Question {
	if questions == nil {
		return nil
	}
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = q.Clone()
	}
	return out
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// ParseOptions splits comma-separated select options, trimming whitespace
// and dropping empty entries.
func ParseOptions(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
