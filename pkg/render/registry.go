package render

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// ErrUnknownRenderer is returned when a name has no registered renderer.
var ErrUnknownRenderer = errors.New("render: renderer not found")

// Registry stores renderers by name. The first renderer registered becomes
// the default unless SetDefault says otherwise.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
	fallback  string
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
	}
}

// Register adds a renderer by its Name(). Duplicate names return an error.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return fmt.Errorf("render: renderer is required")
	}
	name := renderer.Name()
	if name == "" {
		return fmt.Errorf("render: renderer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.renderers[name]; exists {
		return fmt.Errorf("render: renderer %q already registered", name)
	}
	r.renderers[name] = renderer
	if r.fallback == "" {
		r.fallback = name
	}
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// SetDefault picks the renderer used for empty names.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.renderers[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRenderer, name)
	}
	r.fallback = name
	return nil
}

// Get retrieves a renderer by name; an empty name selects the default.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.fallback
	}
	renderer, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, name)
	}
	return renderer, nil
}

// Render looks up name and renders form with it, returning the output and
// its content type.
func (r *Registry) Render(ctx context.Context, name string, form model.FormModel, options RenderOptions) ([]byte, string, error) {
	renderer, err := r.Get(name)
	if err != nil {
		return nil, "", err
	}
	out, err := renderer.Render(ctx, form, options)
	if err != nil {
		return nil, "", fmt.Errorf("render: %s: %w", renderer.Name(), err)
	}
	return out, renderer.ContentType(), nil
}

// List returns a sorted list of renderer names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a renderer is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.renderers[name]
	return ok
}
