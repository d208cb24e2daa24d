// Package file stores slots as JSON files in a directory, one file per slot.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-formbuilder/pkg/store"
)

// Backend keeps each slot in <dir>/<slot>.json. Writes go through a
// temporary file and a rename so readers never observe a partial snapshot.
type Backend struct {
	dir string

	mu     sync.Mutex
	closed bool
}

var _ store.Backend = (*Backend)(nil)

// New prepares dir, creating it when missing.
func New(dir string) (*Backend, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("file store: directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("file store: create dir: %w", err)
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) path(key string) (string, error) {
	name := strings.TrimSpace(key)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("file store: invalid slot name %q", key)
	}
	return filepath.Join(b.dir, name+".json"), nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, false, store.ErrClosed
	}

	path, err := b.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("file store: read %s: %w", path, err)
	}
	return data, true, nil
}

func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return store.ErrClosed
	}

	path, err := b.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(b.dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("file store: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("file store: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("file store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("file store: replace %s: %w", path, err)
	}
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
