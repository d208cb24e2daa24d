package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formbuilder/pkg/question"
)

var (
	// ErrOperationNotFound is returned when no operation matches the request.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestSchema is returned when the operation has no usable body.
	ErrNoRequestSchema = errors.New("openapi: operation has no request body schema")
)

var requestMediaTypes = []string{
	"application/json",
	"application/x-www-form-urlencoded",
	"multipart/form-data",
}

var methodOrder = []string{
	http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodGet, http.MethodDelete, http.MethodHead, http.MethodOptions,
}

// ImportResult holds the questions derived from one operation.
type ImportResult struct {
	OperationID string
	Questions   []question.Question
	// Skipped names properties whose schema has no question equivalent.
	Skipped []string
}

// Load parses and validates an OpenAPI document.
func Load(ctx context.Context, data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: validate document: %w", err)
	}
	return doc, nil
}

// LoadFile reads and loads the document at path.
func LoadFile(ctx context.Context, path string) (*openapi3.T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", path, err)
	}
	return Load(ctx, data)
}

// Import converts the request body of the operation named operationID into
// questions. An empty operationID selects the first operation with a request
// body, walking paths alphabetically.
func Import(doc *openapi3.T, operationID string) (ImportResult, error) {
	if doc == nil || doc.Paths == nil {
		return ImportResult{}, ErrOperationNotFound
	}
	op, err := findOperation(doc, strings.TrimSpace(operationID))
	if err != nil {
		return ImportResult{}, err
	}
	schema := requestSchema(op)
	if schema == nil {
		return ImportResult{}, fmt.Errorf("%w: %s", ErrNoRequestSchema, op.OperationID)
	}

	result := ImportResult{OperationID: op.OperationID}
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	for _, name := range propertyOrder(schema) {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			result.Skipped = append(result.Skipped, name)
			continue
		}
		q, ok := questionFromSchema(name, ref.Value)
		if !ok {
			result.Skipped = append(result.Skipped, name)
			continue
		}
		q.Required = required[name]
		result.Questions = append(result.Questions, q)
	}
	return result, nil
}

func findOperation(doc *openapi3.T, operationID string) (*openapi3.Operation, error) {
	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for key := range paths {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		item := paths[key]
		if item == nil {
			continue
		}
		ops := item.Operations()
		for _, method := range methodOrder {
			op := ops[method]
			if op == nil {
				continue
			}
			if operationID == "" {
				if requestSchema(op) != nil {
					return op, nil
				}
				continue
			}
			if op.OperationID == operationID {
				return op, nil
			}
		}
	}
	if operationID == "" {
		return nil, fmt.Errorf("%w: no operation accepts a request body", ErrOperationNotFound)
	}
	return nil, fmt.Errorf("%w: %s", ErrOperationNotFound, operationID)
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	for _, mime := range requestMediaTypes {
		media := op.RequestBody.Value.Content.Get(mime)
		if media == nil || media.Schema == nil || media.Schema.Value == nil {
			continue
		}
		if len(media.Schema.Value.Properties) > 0 {
			return media.Schema.Value
		}
	}
	return nil
}

// propertyOrder honours x-order when present and falls back to name order.
func propertyOrder(schema *openapi3.Schema) []string {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	order := func(name string) (float64, bool) {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			return 0, false
		}
		return numericExtension(ref.Value.Extensions[orderExtension])
	}
	sort.SliceStable(names, func(i, j int) bool {
		oi, iok := order(names[i])
		oj, jok := order(names[j])
		switch {
		case iok && jok && oi != oj:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})
	return names
}

func questionFromSchema(name string, schema *openapi3.Schema) (question.Question, bool) {
	q := question.New(name)
	q.Label = strings.TrimSpace(schema.Title)
	if q.Label == "" {
		q.Label = humanize(name)
	}
	q.HelperText = strings.TrimSpace(schema.Description)

	switch {
	case len(schema.Enum) > 0:
		q.Type = question.TypeSelect
		for _, value := range schema.Enum {
			if value == nil {
				continue
			}
			q.Options = append(q.Options, fmt.Sprint(value))
		}
	case schema.Type.Is(openapi3.TypeNumber), schema.Type.Is(openapi3.TypeInteger):
		q.Type = question.TypeNumber
		q.Min, q.Max = nil, nil
		if schema.Min != nil {
			q.Min = question.Float(*schema.Min)
		}
		if schema.Max != nil {
			q.Max = question.Float(*schema.Max)
		}
		if unit, ok := schema.Extensions[unitExtension].(string); ok && unit != "" {
			q.NumberType = unit
		}
	case schema.Type.Is(openapi3.TypeBoolean):
		q.Type = question.TypeSelect
		q.Options = []string{"true", "false"}
	case schema.Type == nil, schema.Type.Is(openapi3.TypeString):
		q.Type = question.TypeText
	default:
		return question.Question{}, false
	}
	return q, true
}

func numericExtension(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// humanize turns property names like firstName or first_name into
// "First name".
func humanize(name string) string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, strings.ToLower(string(current)))
			current = current[:0]
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()
	if len(words) == 0 {
		return name
	}
	label := strings.Join(words, " ")
	first := []rune(label)
	first[0] = unicode.ToUpper(first[0])
	return string(first)
}
