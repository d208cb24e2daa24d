// Package storetest holds the behaviour every store.Backend must share.
package storetest

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/question"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// RunBackendContract exercises a backend through store.Store. newBackend must
// return an empty backend; the contract closes it.
func RunBackendContract(t *testing.T, newBackend func(t *testing.T) store.Backend) {
	t.Helper()

	t.Run("absent slot reads as empty form", func(t *testing.T) {
		s := store.New(newBackend(t))
		defer s.Close()

		got, err := s.Read(context.Background())
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty form, got %d questions", len(got))
		}
	})

	t.Run("write overwrites and preserves order", func(t *testing.T) {
		s := store.New(newBackend(t), store.WithSlot("contract"))
		defer s.Close()
		ctx := context.Background()

		first := []question.Question{sample("1", "Name"), sample("2", "Age"), sample("3", "Colour")}
		if err := s.Write(ctx, first); err != nil {
			t.Fatalf("write: %v", err)
		}
		second := []question.Question{sample("3", "Colour"), sample("1", "Full name")}
		if err := s.Write(ctx, second); err != nil {
			t.Fatalf("overwrite: %v", err)
		}

		got, err := s.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if diff := cmp.Diff(second, got); diff != "" {
			t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unchanged commits are byte identical", func(t *testing.T) {
		s := store.New(newBackend(t))
		defer s.Close()
		ctx := context.Background()

		snapshot := []question.Question{sample("1", "Age")}
		if err := s.Write(ctx, snapshot); err != nil {
			t.Fatalf("write: %v", err)
		}
		before, err := s.ReadRaw(ctx)
		if err != nil {
			t.Fatalf("read raw: %v", err)
		}
		if err := s.Write(ctx, snapshot); err != nil {
			t.Fatalf("write again: %v", err)
		}
		after, err := s.ReadRaw(ctx)
		if err != nil {
			t.Fatalf("read raw: %v", err)
		}
		if !bytes.Equal(before, after) {
			t.Fatalf("stored bytes changed:\nbefore: %s\n after: %s", before, after)
		}
	})

	t.Run("slots are isolated", func(t *testing.T) {
		backend := newBackend(t)
		a := store.New(backend, store.WithSlot("a"))
		b := store.New(backend, store.WithSlot("b"))
		defer a.Close()
		ctx := context.Background()

		if err := a.Write(ctx, []question.Question{sample("1", "Only in a")}); err != nil {
			t.Fatalf("write: %v", err)
		}
		got, err := b.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("slot b should be empty, got %+v", got)
		}
	})
}

func sample(id, label string) question.Question {
	q := question.New(id)
	q.Label = label
	q.Options = []string{"x", "y"}
	q.SaveStatus = question.StatusSaved
	return q
}
