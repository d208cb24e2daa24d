// Package sqlite stores slots in a single SQLite table using the pure-Go
// modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/goliatone/go-formbuilder/pkg/store"
)

const schema = `CREATE TABLE IF NOT EXISTS slots (
	name TEXT PRIMARY KEY,
	payload BLOB NOT NULL
)`

// Backend keeps every slot as a row of the slots table.
type Backend struct {
	db *sql.DB
}

var _ store.Backend = (*Backend)(nil)

// Open opens (or creates) the database at path. ":memory:" keeps everything
// in process.
func Open(path string) (*Backend, error) {
	if path == "" {
		path = "formbuilder.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("sqlite store: create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises
	// writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite store: create slots table: %w", err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `SELECT payload FROM slots WHERE name = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite store: select slot: %w", err)
	}
	return payload, true, nil
}

func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO slots (name, payload) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload`,
		key, value)
	if err != nil {
		return fmt.Errorf("sqlite store: upsert slot: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
