package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/orchestrator"
	"github.com/goliatone/go-formbuilder/pkg/question"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/testsupport"
)

type echoRenderer struct{}

func (echoRenderer) Name() string        { return "echo" }
func (echoRenderer) ContentType() string { return "text/plain" }
func (echoRenderer) Render(_ context.Context, form model.FormModel, _ render.RenderOptions) ([]byte, error) {
	labels := make([]string, 0, len(form.Fields))
	for _, field := range form.Fields {
		labels = append(labels, field.Label)
	}
	return []byte(form.Summary + ": " + strings.Join(labels, ",")), nil
}

func echoRegistry() *render.Registry {
	registry := render.NewRegistry()
	registry.MustRegister(echoRenderer{})
	return registry
}

func questions() []question.Question {
	return []question.Question{
		testsupport.Question("q1", "Name", question.TypeText),
		testsupport.NumberQuestion("q2", "", 0, 10),
	}
}

func TestGenerate_ReadsSource(t *testing.T) {
	source := orchestrator.SourceFunc(func(context.Context) ([]question.Question, error) {
		return questions(), nil
	})
	o := orchestrator.New(orchestrator.WithSource(source), orchestrator.WithRegistry(echoRegistry()))

	result, err := o.Generate(context.Background(), orchestrator.Request{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if diff := cmp.Diff("Form preview: Name,Question 2", string(result.Body)); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if result.ContentType != "text/plain" {
		t.Fatalf("content type = %s", result.ContentType)
	}
}

func TestGenerate_RequestQuestionsWinOverSource(t *testing.T) {
	source := orchestrator.SourceFunc(func(context.Context) ([]question.Question, error) {
		return nil, errors.New("should not be read")
	})
	o := orchestrator.New(orchestrator.WithSource(source), orchestrator.WithRegistry(echoRegistry()))

	result, err := o.Generate(context.Background(), orchestrator.Request{Questions: []question.Question{}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(result.Body) != "Form preview: " {
		t.Fatalf("body = %q", result.Body)
	}
}

func TestGenerate_UnknownRenderer(t *testing.T) {
	o := orchestrator.New(orchestrator.WithRegistry(echoRegistry()))
	_, err := o.Generate(context.Background(), orchestrator.Request{Questions: questions(), Renderer: "pdf"})
	if !errors.Is(err, render.ErrUnknownRenderer) {
		t.Fatalf("err = %v, want ErrUnknownRenderer", err)
	}
}

func TestGenerate_DefaultsToHTML(t *testing.T) {
	o := orchestrator.New()
	result, err := o.Generate(context.Background(), orchestrator.Request{Questions: questions()})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(result.ContentType, "text/html") {
		t.Fatalf("content type = %s", result.ContentType)
	}
	if !strings.Contains(string(result.Body), "Question 2") {
		t.Fatalf("body does not mention the unlabeled question:\n%s", result.Body)
	}
}

func TestPresetTransformer(t *testing.T) {
	files := fstest.MapFS{
		"preset.yaml": {Data: []byte(`
summary: Intake
metadata:
  theme: compact
fields:
  q2:
    label: Age
    unit: Months
  gone:
    label: Ignored
`)},
	}
	preset, err := orchestrator.NewPresetTransformerFromFS(files, "preset.yaml")
	if err != nil {
		t.Fatalf("load preset: %v", err)
	}
	o := orchestrator.New(orchestrator.WithRegistry(echoRegistry()), orchestrator.WithTransformers(preset))

	form, err := o.Build(context.Background(), orchestrator.Request{Questions: questions()})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if form.Summary != "Intake" || form.Metadata["theme"] != "compact" {
		t.Fatalf("form = %+v", form)
	}
	age := form.Fields[1]
	if age.Label != "Age" || age.Unit != "Months" {
		t.Fatalf("age = %+v", age)
	}

	preset.Strict = true
	if _, err := o.Build(context.Background(), orchestrator.Request{Questions: questions()}); err == nil {
		t.Fatal("strict preset accepted unknown field")
	}
}

func TestPresetTransformer_Empty(t *testing.T) {
	if _, err := orchestrator.NewPresetTransformer([]byte("  ")); err == nil {
		t.Fatal("expected error for empty preset")
	}
}
