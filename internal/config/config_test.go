package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbuilder/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 2*time.Second, cfg.Autosave.Delay)
	assert.Equal(t, "/form", cfg.Form.Endpoint)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formbuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: 127.0.0.1:9090
store:
  backend: SQLite
  path: data/questions.db
autosave:
  delay: 3s
saver:
  failureRate: 0
log:
  level: debug
form:
  method: put
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, config.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "data/questions.db", cfg.Store.Path)
	assert.Equal(t, 3*time.Second, cfg.Autosave.Delay)
	assert.Zero(t, cfg.Saver.FailureRate)
	assert.Equal(t, time.Second, cfg.Saver.MinDelay, "unset keys keep defaults")
	assert.Equal(t, "PUT", cfg.Form.Method)
}

func TestValidateReportsEveryFailure(t *testing.T) {
	_, err := config.Parse([]byte(`
store:
  backend: file
saver:
  minDelay: 2s
  maxDelay: 1s
  failureRate: 1.5
log:
  level: loud
`))
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		"Store.Path is required",
		"Saver.MaxDelay fails gtefield=MinDelay",
		"Saver.FailureRate fails lte=1",
		`Log.Level must be one of [debug info warn error], got "loud"`,
	} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %s", want, msg)
	}
}

func TestUnknownKeysRejected(t *testing.T) {
	_, err := config.Parse([]byte("stroe:\n  backend: file\n"))
	require.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := config.Marshal(config.Default())
	require.NoError(t, err)
	cfg, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
