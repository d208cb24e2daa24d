package openapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/question"
)

const (
	orderExtension = "x-order"
	unitExtension  = "x-unit"
)

// Info names the exported document.
type Info struct {
	Title   string
	Version string
}

// Export builds and validates a document describing the question API and the
// submission endpoint of form.
func Export(ctx context.Context, form model.FormModel, info Info) (*openapi3.T, error) {
	if info.Title == "" {
		info.Title = "Form builder"
	}
	if info.Version == "" {
		info.Version = "1.0.0"
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: info.Title, Version: info.Version},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/api/questions", questionsPath()),
			openapi3.WithPath("/api/questions/{id}", questionPath()),
			openapi3.WithPath(form.Endpoint, submitPath(form)),
		),
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: exported document is invalid: %w", err)
	}
	return doc, nil
}

// SubmissionSchema describes the answers object accepted by form.
func SubmissionSchema(form model.FormModel) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	var required []string
	for idx, field := range form.Fields {
		prop := fieldSchema(field)
		prop.Extensions = map[string]any{orderExtension: idx}
		if field.Type == model.FieldTypeNumber && field.Unit != "" {
			prop.Extensions[unitExtension] = field.Unit
		}
		schema.WithProperty(field.Name, prop)
		if field.Required {
			required = append(required, field.Name)
		}
	}
	if len(required) > 0 {
		schema.WithRequired(required)
	}
	return schema
}

func fieldSchema(field model.Field) *openapi3.Schema {
	var s *openapi3.Schema
	switch field.Type {
	case model.FieldTypeNumber:
		s = openapi3.NewFloat64Schema()
		if v, ok := ruleFloat(field, model.ValidationRuleMin); ok {
			s.WithMin(v)
		}
		if v, ok := ruleFloat(field, model.ValidationRuleMax); ok {
			s.WithMax(v)
		}
	case model.FieldTypeSelect:
		s = openapi3.NewStringSchema()
		if len(field.Enum) > 0 {
			values := make([]any, 0, len(field.Enum))
			for _, option := range field.Enum {
				values = append(values, option)
			}
			s.WithEnum(values...)
		}
	default:
		s = openapi3.NewStringSchema()
		if field.Required {
			s.WithMinLength(1)
		}
	}
	s.Title = field.Label
	s.Description = field.Description
	return s
}

func ruleFloat(field model.Field, kind string) (float64, bool) {
	rule, ok := field.Rule(kind)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(rule.Params["value"], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// QuestionSchema describes a persisted question record.
func QuestionSchema() *openapi3.Schema {
	types := make([]any, 0, len(question.Types))
	for _, t := range question.Types {
		types = append(types, string(t))
	}
	return openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("type", openapi3.NewStringSchema().WithEnum(types...)).
		WithProperty("label", openapi3.NewStringSchema()).
		WithProperty("helperText", openapi3.NewStringSchema()).
		WithProperty("numberType", openapi3.NewStringSchema()).
		WithProperty("min", openapi3.NewFloat64Schema()).
		WithProperty("max", openapi3.NewFloat64Schema()).
		WithProperty("options", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
		WithProperty("required", openapi3.NewBoolSchema()).
		WithProperty("hidden", openapi3.NewBoolSchema()).
		WithProperty("saveStatus", openapi3.NewStringSchema().WithEnum(
			string(question.StatusInitial), string(question.StatusSaving),
			string(question.StatusSaved), string(question.StatusError))).
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("lastUpdated", openapi3.NewStringSchema()).
		WithRequired([]string{"id", "type", "label", "required", "hidden", "saveStatus"})
}

// PatchSchema describes a partial question update.
func PatchSchema() *openapi3.Schema {
	q := QuestionSchema()
	patch := openapi3.NewObjectSchema()
	for _, name := range []string{"type", "label", "helperText", "numberType", "min", "max", "options", "required", "hidden"} {
		patch.WithPropertyRef(name, q.Properties[name])
	}
	return patch
}

func errorSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("message", openapi3.NewStringSchema())
}

func jsonResponse(description string, schema *openapi3.Schema) *openapi3.Response {
	return openapi3.NewResponse().WithDescription(description).WithJSONSchema(schema)
}

func questionsPath() *openapi3.PathItem {
	list := openapi3.NewOperation()
	list.OperationID = "questions.list"
	list.Summary = "List questions in display order"
	list.Responses = openapi3.NewResponses(openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
		Value: jsonResponse("Questions", openapi3.NewArraySchema().WithItems(QuestionSchema())),
	}))

	create := openapi3.NewOperation()
	create.OperationID = "questions.add"
	create.Summary = "Append a question with default fields"
	create.Responses = openapi3.NewResponses(openapi3.WithStatus(http.StatusCreated, &openapi3.ResponseRef{
		Value: jsonResponse("Created question", QuestionSchema()),
	}))

	return &openapi3.PathItem{Get: list, Post: create}
}

func questionPath() *openapi3.PathItem {
	idParam := openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema())
	notFound := &openapi3.ResponseRef{Value: jsonResponse("Unknown question", errorSchema())}

	get := openapi3.NewOperation()
	get.OperationID = "questions.get"
	get.AddParameter(idParam)
	get.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: jsonResponse("Question", QuestionSchema())}),
		openapi3.WithStatus(http.StatusNotFound, notFound),
	)

	update := openapi3.NewOperation()
	update.OperationID = "questions.update"
	update.Summary = "Merge fields and schedule an auto-save"
	update.AddParameter(idParam)
	update.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(PatchSchema())}
	update.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: jsonResponse("Updated question", QuestionSchema())}),
		openapi3.WithStatus(http.StatusBadRequest, &openapi3.ResponseRef{Value: jsonResponse("Malformed patch", errorSchema())}),
		openapi3.WithStatus(http.StatusNotFound, notFound),
	)

	remove := openapi3.NewOperation()
	remove.OperationID = "questions.delete"
	remove.AddParameter(idParam)
	remove.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusNoContent, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Deleted")}),
		openapi3.WithStatus(http.StatusNotFound, notFound),
	)

	return &openapi3.PathItem{Get: get, Patch: update, Delete: remove}
}

func submitPath(form model.FormModel) *openapi3.PathItem {
	body := SubmissionSchema(form)
	op := openapi3.NewOperation()
	op.OperationID = form.OperationID
	op.Summary = form.Summary
	op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
		WithRequired(true).
		WithJSONSchema(body).
		WithFormDataSchema(body)}
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: jsonResponse("Accepted answers",
			openapi3.NewObjectSchema().
				WithProperty("valid", openapi3.NewBoolSchema()).
				WithProperty("values", openapi3.NewObjectSchema()))}),
		openapi3.WithStatus(http.StatusUnprocessableEntity, &openapi3.ResponseRef{Value: jsonResponse("Validation errors",
			openapi3.NewObjectSchema().
				WithProperty("valid", openapi3.NewBoolSchema()).
				WithProperty("errors", openapi3.NewObjectSchema()))}),
	)

	item := &openapi3.PathItem{}
	switch form.Method {
	case http.MethodPut:
		item.Put = op
	case http.MethodPatch:
		item.Patch = op
	default:
		item.Post = op
	}
	return item
}
