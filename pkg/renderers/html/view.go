package html

import (
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/question"
)

type fieldView struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	Required    bool     `json:"required"`
	Description string   `json:"description,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Options     []string `json:"options,omitempty"`
	Min         string   `json:"min,omitempty"`
	Max         string   `json:"max,omitempty"`
	Value       string   `json:"value"`
	Errors      []string `json:"errors,omitempty"`
}

func fieldViews(form model.FormModel, values map[string]string, errs map[string][]string) []fieldView {
	out := make([]fieldView, 0, len(form.Fields))
	for _, field := range form.Fields {
		view := fieldView{
			Name:        field.Name,
			Type:        string(field.Type),
			Label:       field.Label,
			Required:    field.Required,
			Description: field.Description,
			Unit:        field.Unit,
			Options:     field.Enum,
			Value:       values[field.Name],
			Errors:      errs[field.Name],
		}
		if rule, ok := field.Rule(model.ValidationRuleMin); ok {
			view.Min = rule.Params["value"]
		}
		if rule, ok := field.Rule(model.ValidationRuleMax); ok {
			view.Max = rule.Params["value"]
		}
		out = append(out, view)
	}
	return out
}

type questionView struct {
	ID         string `json:"id"`
	Display    string `json:"display"`
	Type       string `json:"type"`
	Label      string `json:"label"`
	HelperText string `json:"helperText"`
	NumberType string `json:"numberType"`
	Min        string `json:"min"`
	Max        string `json:"max"`
	Options    string `json:"options"`
	Required   bool   `json:"required"`
	Hidden     bool   `json:"hidden"`
	SaveStatus string `json:"saveStatus"`
	StatusText string `json:"statusText"`
	Error      string `json:"error"`
}

func questionViews(questions []question.Question) []questionView {
	out := make([]questionView, 0, len(questions))
	for idx, q := range questions {
		view := questionView{
			ID:         q.ID,
			Display:    q.DisplayLabel(idx),
			Type:       string(q.Type),
			Label:      q.Label,
			HelperText: q.HelperText,
			NumberType: q.NumberType,
			Options:    strings.Join(q.Options, ", "),
			Required:   q.Required,
			Hidden:     q.Hidden,
			SaveStatus: string(q.SaveStatus),
			StatusText: StatusLabels[q.SaveStatus],
			Error:      q.Error,
		}
		if q.Min != nil {
			view.Min = model.FormatFloat(*q.Min)
		}
		if q.Max != nil {
			view.Max = model.FormatFloat(*q.Max)
		}
		if q.SaveStatus == question.StatusError && q.Error != "" {
			view.StatusText = q.Error
		}
		out = append(out, view)
	}
	return out
}
