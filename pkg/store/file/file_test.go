package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-formbuilder/pkg/question"
	"github.com/goliatone/go-formbuilder/pkg/store"
	"github.com/goliatone/go-formbuilder/pkg/store/file"
	"github.com/goliatone/go-formbuilder/pkg/store/storetest"
)

func TestFileBackendContract(t *testing.T) {
	storetest.RunBackendContract(t, func(t *testing.T) store.Backend {
		backend, err := file.New(t.TempDir())
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		return backend
	})
}

func TestFileBackend_WritesSlotFile(t *testing.T) {
	dir := t.TempDir()
	backend, err := file.New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s := store.New(backend)
	defer s.Close()

	if err := s.Write(context.Background(), []question.Question{question.New("1")}); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "formData.json"))
	if err != nil {
		t.Fatalf("read slot file: %v", err)
	}
	if len(data) == 0 || data[0] != '[' {
		t.Fatalf("unexpected slot content %s", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestFileBackend_RejectsPathSlots(t *testing.T) {
	backend, err := file.New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := backend.Put(context.Background(), "../escape", []byte("[]")); err == nil {
		t.Fatalf("expected invalid slot error")
	}
}
