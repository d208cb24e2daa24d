// Package app assembles the collection, its store and the preview pipeline
// from a config.Config. The server and the CLI both start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formbuilder/internal/config"
	"github.com/goliatone/go-formbuilder/internal/metrics"
	"github.com/goliatone/go-formbuilder/pkg/builder"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/orchestrator"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/renderers/html"
	"github.com/goliatone/go-formbuilder/pkg/renderers/tui"
	"github.com/goliatone/go-formbuilder/pkg/saver"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// Option customises New.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	saver       saver.Saver
	backend     store.Backend
	collection  []builder.Option
	tuiOptions  []tui.Option
	withMetrics bool
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSaver replaces the simulated save endpoint.
func WithSaver(s saver.Saver) Option {
	return func(o *options) {
		o.saver = s
	}
}

// WithBackend bypasses OpenBackend.
func WithBackend(b store.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithCollectionOptions forwards extra options to builder.New.
func WithCollectionOptions(opts ...builder.Option) Option {
	return func(o *options) {
		o.collection = append(o.collection, opts...)
	}
}

// WithTUIOptions configures the terminal renderer.
func WithTUIOptions(opts ...tui.Option) Option {
	return func(o *options) {
		o.tuiOptions = append(o.tuiOptions, opts...)
	}
}

// App owns every long-lived component.
type App struct {
	Config       config.Config
	Logger       *zap.Logger
	Store        *store.Store
	Collection   *builder.Collection
	Metrics      *metrics.Recorder
	HTML         *html.Renderer
	Registry     *render.Registry
	Orchestrator *orchestrator.Orchestrator

	closeOnce sync.Once
	closeErr  error
}

// New wires the application and loads the persisted snapshot.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{withMetrics: cfg.Server.Metrics}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	backend := o.backend
	if backend == nil {
		var err error
		backend, err = OpenBackend(cfg.Store)
		if err != nil {
			return nil, err
		}
	}
	snapshots := store.New(backend, store.WithSlot(cfg.Store.Slot), store.WithLogger(logger.Named("store")))

	a := &App{Config: cfg, Logger: logger, Store: snapshots}

	s := o.saver
	if s == nil {
		s = saver.NewSimulator(
			saver.WithDelay(cfg.Saver.MinDelay, cfg.Saver.MaxDelay),
			saver.WithFailureRate(cfg.Saver.FailureRate),
		)
	}
	collectionOpts := []builder.Option{
		builder.WithSaver(s),
		builder.WithStore(snapshots),
		builder.WithDebounce(cfg.Autosave.Delay),
		builder.WithLogger(logger.Named("builder")),
	}
	if o.withMetrics {
		a.Metrics = metrics.New()
		collectionOpts = append(collectionOpts, builder.WithRecorder(a.Metrics))
	}
	a.Collection = builder.New(append(collectionOpts, o.collection...)...)

	if err := a.Collection.Load(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app: load snapshot: %w", err)
	}

	htmlRenderer, err := html.New()
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("app: html renderer: %w", err)
	}
	a.HTML = htmlRenderer
	a.Registry = render.NewRegistry()
	a.Registry.MustRegister(htmlRenderer)
	a.Registry.MustRegister(tui.New(o.tuiOptions...))

	orchestratorOpts := []orchestrator.Option{
		orchestrator.WithSource(snapshots),
		orchestrator.WithRegistry(a.Registry),
		orchestrator.WithModelBuilder(model.NewBuilder(
			model.WithEndpoint(cfg.Form.Method, cfg.Form.Endpoint),
			model.WithSummary(cfg.Form.Summary),
			model.WithOperationID(cfg.Form.OperationID),
		)),
	}
	if cfg.Form.Preset != "" {
		preset, err := loadPreset(cfg.Form.Preset)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		orchestratorOpts = append(orchestratorOpts, orchestrator.WithTransformers(preset))
	}
	a.Orchestrator = orchestrator.New(orchestratorOpts...)

	logger.Debug("app ready",
		zap.String("backend", cfg.Store.Backend),
		zap.String("slot", snapshots.Slot()),
		zap.Int("questions", a.Collection.Len()),
	)
	return a, nil
}

func loadPreset(path string) (*orchestrator.PresetTransformer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("app: read preset: %w", err)
	}
	preset, err := orchestrator.NewPresetTransformer(data)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return preset, nil
}

// Close stops pending saves and releases the store.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		var errs []error
		if a.Collection != nil {
			errs = append(errs, a.Collection.Close())
		}
		if a.Store != nil {
			errs = append(errs, a.Store.Close())
		}
		_ = a.Logger.Sync()
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}
