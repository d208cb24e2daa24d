package render

import (
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// ErrorMapping splits an error payload into field-level and form-level
// messages keyed by field name.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates and normalises multiple form-level error
// slices, trimming whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload normalises error payloads whose keys may be JSON pointers
// ("/body/<id>") or dotted paths ("answers.<id>") into field names the
// renderers know. Unknown keys become form-level errors so messages are not
// lost.
func MapErrorPayload(form model.FormModel, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{
		Fields: make(map[string][]string),
	}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	names := make(map[string]struct{}, len(form.Fields))
	for _, field := range form.Fields {
		names[field.Name] = struct{}{}
	}

	for rawPath, messages := range payload {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			continue
		}
		name, ok := mapErrorPath(rawPath, names)
		if !ok {
			mapping.Form = append(mapping.Form, normalized...)
			continue
		}
		mapping.Fields[name] = append(mapping.Fields[name], normalized...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// mapErrorPath matches the last path segment that names a field.
func mapErrorPath(raw string, names map[string]struct{}) (string, bool) {
	segments := strings.FieldsFunc(strings.TrimSpace(raw), func(r rune) bool {
		return r == '.' || r == '/' || r == '#' || r == '$' || r == '[' || r == ']'
	})
	for i := len(segments) - 1; i >= 0; i-- {
		segment := strings.ReplaceAll(segments[i], "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		if _, ok := names[segment]; ok {
			return segment, true
		}
	}
	return "", false
}
