// Package cli implements the formbuilder command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formbuilder/internal/app"
	"github.com/goliatone/go-formbuilder/internal/config"
	"github.com/goliatone/go-formbuilder/internal/logging"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// Env holds the resolved configuration shared by every subcommand.
type Env struct {
	ConfigPath string
	Store      string
	StorePath  string
	LogLevel   string

	Config config.Config
	Logger *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	env := &Env{}

	cmd := &cobra.Command{
		Use:           "formbuilder",
		Short:         "Compose questions, auto-save them and preview the resulting form",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Run the builder UI on localhost:8080
  formbuilder serve

  # Keep questions in SQLite and add one from the shell
  formbuilder --store sqlite --store-path data/questions.db add --label Age --type number --max 120

  # Fill in the saved form from the terminal
  formbuilder fill
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return env.resolve(cmd)
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if env.Logger != nil {
			_ = env.Logger.Sync()
		}
	}

	cmd.PersistentFlags().StringVar(&env.ConfigPath, "config", envOr("FORMBUILDER_CONFIG", ""), "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&env.Store, "store", envOr("FORMBUILDER_STORE", ""), "Store backend (memory|file|sqlite|badger)")
	cmd.PersistentFlags().StringVar(&env.StorePath, "store-path", envOr("FORMBUILDER_STORE_PATH", ""), "Directory or file used by the store backend")
	cmd.PersistentFlags().StringVar(&env.LogLevel, "log-level", envOr("FORMBUILDER_LOG_LEVEL", ""), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newServeCmd(env))
	cmd.AddCommand(newAddCmd(env))
	cmd.AddCommand(newListCmd(env))
	cmd.AddCommand(newDeleteCmd(env))
	cmd.AddCommand(newRenderCmd(env))
	cmd.AddCommand(newFillCmd(env))
	cmd.AddCommand(newOpenAPICmd(env))
	cmd.AddCommand(newImportCmd(env))
	return cmd
}

// resolve loads the config file and applies flag overrides on top.
func (e *Env) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(e.ConfigPath)
	if err != nil {
		return err
	}
	if e.Store != "" {
		cfg.Store.Backend = e.Store
	}
	if e.StorePath != "" {
		cfg.Store.Path = e.StorePath
	}
	if e.LogLevel != "" {
		cfg.Log.Level = e.LogLevel
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.Config = cfg

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	e.Logger = logger
	return nil
}

// open wires the full application.
func (e *Env) open(ctx context.Context, opts ...app.Option) (*app.App, error) {
	return app.New(ctx, e.Config, append([]app.Option{app.WithLogger(e.Logger)}, opts...)...)
}

// openStore opens only the snapshot slot, for commands that never schedule
// saves.
func (e *Env) openStore() (*store.Store, error) {
	backend, err := app.OpenBackend(e.Config.Store)
	if err != nil {
		return nil, err
	}
	return store.New(backend, store.WithSlot(e.Config.Store.Slot), store.WithLogger(e.Logger.Named("store"))), nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "written to %s\n", path)
	return nil
}
