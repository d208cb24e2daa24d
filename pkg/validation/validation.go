// Package validation checks a filled-in preview form. Rules come from the
// form model so the HTML, terminal and HTTP paths all report identical
// messages.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/question"
)

const (
	MessageRequired = "This field is required."
	MessageNumber   = "Must be a number."
	MessageMin      = "Must be at least %s."
	MessageMax      = "Must be no more than %s."
)

// Result captures a submission outcome. Values holds the trimmed answers of
// every visible field and is only meaningful when Valid is true.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
	Values map[string]string `json:"values,omitempty"`
}

// Visible returns the questions a respondent sees, in order.
func Visible(questions []question.Question) []question.Question {
	out := make([]question.Question, 0, len(questions))
	for _, q := range questions {
		if !q.Hidden {
			out = append(out, q)
		}
	}
	return out
}

// ValidateSubmission validates values against the visible questions.
func ValidateSubmission(questions []question.Question, values map[string]string) Result {
	return ValidateForm(model.FromQuestions(questions), values)
}

// ValidateForm validates values against every field of form. Keys in values
// that match no field are ignored.
func ValidateForm(form model.FormModel, values map[string]string) Result {
	result := Result{
		Valid:  true,
		Values: make(map[string]string, len(form.Fields)),
	}
	for _, field := range form.Fields {
		raw := values[field.Name]
		if message := ValidateField(field, raw); message != "" {
			if result.Errors == nil {
				result.Errors = make(map[string]string)
			}
			result.Errors[field.Name] = message
			result.Valid = false
			continue
		}
		result.Values[field.Name] = strings.TrimSpace(raw)
	}
	if !result.Valid {
		result.Values = nil
	}
	return result
}

// ValidateField returns the first failing rule's message, or "" when raw is
// acceptable. A blank optional number counts as 0 and is still checked
// against its bounds.
func ValidateField(field model.Field, raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" && field.Required {
		return MessageRequired
	}
	if field.Type != model.FieldTypeNumber {
		return ""
	}

	n := 0.0
	if value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return MessageNumber
		}
		n = parsed
	}
	if rule, ok := field.Rule(model.ValidationRuleMin); ok {
		if bound, ok := ruleValue(rule); ok && n < bound {
			return formatBound(MessageMin, rule)
		}
	}
	if rule, ok := field.Rule(model.ValidationRuleMax); ok {
		if bound, ok := ruleValue(rule); ok && n > bound {
			return formatBound(MessageMax, rule)
		}
	}
	return ""
}

// ValidateAnswer validates a single answer for q.
func ValidateAnswer(q question.Question, raw string) string {
	form := model.FromQuestions([]question.Question{q})
	if len(form.Fields) == 0 {
		return ""
	}
	return ValidateField(form.Fields[0], raw)
}

func ruleValue(rule model.ValidationRule) (float64, bool) {
	n, err := strconv.ParseFloat(rule.Params["value"], 64)
	return n, err == nil
}

func formatBound(format string, rule model.ValidationRule) string {
	return fmt.Sprintf(format, rule.Params["value"])
}
