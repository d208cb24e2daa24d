// Package config loads the formbuilder runtime configuration from YAML and
// checks it with struct tags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formbuilder/pkg/autosave"
	"github.com/goliatone/go-formbuilder/pkg/saver"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config is the root document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Saver    SaverConfig    `yaml:"saver"`
	Log      LogConfig      `yaml:"log"`
	Form     FormConfig     `yaml:"form"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" validate:"gte=0"`
	Metrics         bool          `yaml:"metrics"`
}

type StoreConfig struct {
	Backend string `yaml:"backend" validate:"oneof=memory file sqlite badger"`
	// Path is the file, database or directory for persistent backends.
	Path string `yaml:"path" validate:"required_unless=Backend memory"`
	Slot string `yaml:"slot" validate:"required"`
}

type AutosaveConfig struct {
	Delay time.Duration `yaml:"delay" validate:"gt=0"`
}

// SaverConfig tunes the simulated save endpoint.
type SaverConfig struct {
	MinDelay    time.Duration `yaml:"minDelay" validate:"gte=0"`
	MaxDelay    time.Duration `yaml:"maxDelay" validate:"gtefield=MinDelay"`
	FailureRate float64       `yaml:"failureRate" validate:"gte=0,lte=1"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// FormConfig controls how the preview form is described.
type FormConfig struct {
	Summary     string `yaml:"summary"`
	OperationID string `yaml:"operationId"`
	Endpoint    string `yaml:"endpoint" validate:"required,startswith=/"`
	Method      string `yaml:"method" validate:"oneof=POST PUT PATCH"`
	// Preset is an optional YAML file with label and summary overrides.
	Preset string `yaml:"preset"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            "localhost:8080",
			ShutdownTimeout: 5 * time.Second,
			Metrics:         true,
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Slot:    store.DefaultSlot,
		},
		Autosave: AutosaveConfig{Delay: autosave.DefaultDelay},
		Saver: SaverConfig{
			MinDelay:    saver.DefaultMinDelay,
			MaxDelay:    saver.DefaultMaxDelay,
			FailureRate: saver.DefaultFailureRate,
		},
		Log: LogConfig{Level: "info", Format: "console"},
		Form: FormConfig{
			Summary:     "Form preview",
			OperationID: "formbuilder.submit",
			Endpoint:    "/form",
			Method:      "POST",
		},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err = Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w (from %s)", err, path)
	}
	return cfg, nil
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Normalize trims and canonicalises free-form values before validation.
func (c *Config) Normalize() {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.Store.Path = strings.TrimSpace(c.Store.Path)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Form.Method = strings.ToUpper(strings.TrimSpace(c.Form.Method))
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports all failures at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config: %w", err)
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describe(fe))
	}
	return fmt.Errorf("config: invalid: %s", strings.Join(messages, "; "))
}

func describe(fe validator.FieldError) string {
	name := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_unless":
		return name + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", name, fe.Param(), fe.Value())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s fails %s=%s", name, fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s fails %s", name, fe.Tag())
	}
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
