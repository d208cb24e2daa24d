// Package badger stores slots in an embedded Badger key-value database.
package badger

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/goliatone/go-formbuilder/pkg/store"
)

const keyPrefix = "slot/"

// Backend maps each slot to the key "slot/<name>".
type Backend struct {
	db *badgerdb.DB
}

var _ store.Backend = (*Backend)(nil)

// Open opens the database directory at path. An empty path runs Badger in
// memory.
func Open(path string) (*Backend, error) {
	opts := badgerdb.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger store: open: %w", err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var value []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger store: get slot: %w", err)
	}
	return value, true, nil
}

func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(keyPrefix+key), append([]byte(nil), value...))
	})
	if err != nil {
		return fmt.Errorf("badger store: put slot: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
