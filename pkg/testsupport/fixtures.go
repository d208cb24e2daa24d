package testsupport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/goliatone/go-formbuilder/pkg/question"
)

// Question builds a labeled question with builder defaults applied.
func Question(id, label string, t question.Type) question.Question {
	q := question.New(id)
	q.Label = label
	q.Type = t
	return q
}

// NumberQuestion builds a number question bounded by [min, max].
func NumberQuestion(id, label string, min, max float64) question.Question {
	q := Question(id, label, question.TypeNumber)
	q.Min = question.Float(min)
	q.Max = question.Float(max)
	return q
}

// LoadQuestions reads a JSON snapshot fixture.
func LoadQuestions(path string) ([]question.Question, error) {
	if path == "" {
		return nil, errors.New("testsupport: questions path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read questions: %w", err)
	}
	var out []question.Question
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("testsupport: unmarshal questions: %w", err)
	}
	return out, nil
}

// MustLoadQuestions is LoadQuestions for tests.
func MustLoadQuestions(t *testing.T, path string) []question.Question {
	t.Helper()

	out, err := LoadQuestions(path)
	if err != nil {
		t.Fatalf("load questions: %v", err)
	}
	return out
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
