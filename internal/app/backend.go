package app

import (
	"fmt"

	"github.com/goliatone/go-formbuilder/internal/config"
	"github.com/goliatone/go-formbuilder/pkg/store"
	"github.com/goliatone/go-formbuilder/pkg/store/badger"
	"github.com/goliatone/go-formbuilder/pkg/store/file"
	"github.com/goliatone/go-formbuilder/pkg/store/sqlite"
)

// OpenBackend opens the slot backend named by cfg.
func OpenBackend(cfg config.StoreConfig) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return store.NewMemory(), nil
	case config.BackendFile:
		return file.New(cfg.Path)
	case config.BackendSQLite:
		return sqlite.Open(cfg.Path)
	case config.BackendBadger:
		return badger.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("app: unknown store backend %q", cfg.Backend)
	}
}
