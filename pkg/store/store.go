// Package store persists the form snapshot: the full ordered list of
// questions, serialised as JSON into a single named slot of a key-value
// backend. Writes overwrite the slot wholesale; reading an absent slot yields
// an empty form.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formbuilder/pkg/question"
)

// DefaultSlot is the slot name used when none is configured.
const DefaultSlot = "formData"

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store: backend closed")

// Backend is a minimal byte-oriented key-value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Reader loads the snapshot.
type Reader interface {
	Read(ctx context.Context) ([]question.Question, error)
}

// Writer overwrites the snapshot.
type Writer interface {
	Write(ctx context.Context, questions []question.Question) error
}

// Option configures a Store.
type Option func(*Store)

// WithSlot overrides the slot name.
func WithSlot(name string) Option {
	return func(s *Store) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			s.slot = trimmed
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store reads and writes the snapshot slot on a Backend.
type Store struct {
	backend Backend
	slot    string
	logger  *zap.Logger
}

var (
	_ Reader = (*Store)(nil)
	_ Writer = (*Store)(nil)
)

// New wraps backend.
func New(backend Backend, options ...Option) *Store {
	s := &Store{
		backend: backend,
		slot:    DefaultSlot,
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Slot reports the slot name.
func (s *Store) Slot() string {
	return s.slot
}

// Read parses the slot. An absent slot is an empty form, not an error.
func (s *Store) Read(ctx context.Context) ([]question.Question, error) {
	raw, err := s.ReadRaw(ctx)
	if err != nil {
		return nil, err
	}
	questions, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("store: decode slot %q: %w", s.slot, err)
	}
	return questions, nil
}

// ReadRaw returns the stored bytes, or nil when the slot is absent.
func (s *Store) ReadRaw(ctx context.Context) ([]byte, error) {
	if s.backend == nil {
		return nil, errors.New("store: backend is nil")
	}
	raw, ok, err := s.backend.Get(ctx, s.slot)
	if err != nil {
		return nil, fmt.Errorf("store: read slot %q: %w", s.slot, err)
	}
	if !ok {
		return nil, nil
	}
	return raw, nil
}

// Write overwrites the slot with the encoded snapshot.
func (s *Store) Write(ctx context.Context, questions []question.Question) error {
	if s.backend == nil {
		return errors.New("store: backend is nil")
	}
	payload, err := Encode(questions)
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}
	if err := s.backend.Put(ctx, s.slot, payload); err != nil {
		return fmt.Errorf("store: write slot %q: %w", s.slot, err)
	}
	s.logger.Debug("snapshot committed",
		zap.String("slot", s.slot),
		zap.Int("questions", len(questions)),
		zap.Int("bytes", len(payload)))
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// Encode serialises a snapshot. Output is deterministic: equal input always
// produces identical bytes.
func Encode(questions []question.Question) ([]byte, error) {
	if questions == nil {
		questions = []question.Question{}
	}
	return json.Marshal(questions)
}

// Decode parses a snapshot. Empty input decodes to an empty form.
func Decode(raw []byte) ([]question.Question, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var out []question.Question
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
