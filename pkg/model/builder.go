package model

import (
	"github.com/goliatone/go-formbuilder/internal/model"
	"github.com/goliatone/go-formbuilder/pkg/question"
)

// Builder converts question lists into form models.
type Builder interface {
	Build(questions []question.Question) FormModel
}

// BuilderOption configures the builder behaviour.
type BuilderOption func(*model.Options)

// WithEndpoint overrides where the rendered form submits.
func WithEndpoint(method, endpoint string) BuilderOption {
	return func(opts *model.Options) {
		opts.Method = method
		opts.Endpoint = endpoint
	}
}

// WithSummary overrides the form heading.
func WithSummary(summary string) BuilderOption {
	return func(opts *model.Options) {
		opts.Summary = summary
	}
}

// WithOperationID overrides the form identifier.
func WithOperationID(id string) BuilderOption {
	return func(opts *model.Options) {
		opts.OperationID = id
	}
}

// NewBuilder returns a Builder backed by the internal implementation.
func NewBuilder(options ...BuilderOption) Builder {
	cfg := model.Options{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return model.New(cfg)
}

// FromQuestions builds a form model with the default options.
func FromQuestions(questions []question.Question) FormModel {
	return NewBuilder().Build(questions)
}
