package render

import (
	"sort"
	"strings"
)

// HiddenField is a hidden input emitted alongside the visible fields.
type HiddenField struct {
	Name  string
	Value string
}

// SortedHiddenFields normalises and sorts hidden fields for deterministic
// rendering. Empty names are dropped.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	result := make([]HiddenField, 0, len(fields))
	for name, value := range fields {
		if key := strings.TrimSpace(name); key != "" {
			result = append(result, HiddenField{Name: key, Value: value})
		}
	}
	if len(result) == 0 {
		return nil
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
