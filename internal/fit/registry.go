package fit

import (
	"fmt"
	"sort"
	"sync"
)

// Registry resolves model names to Model implementations. It is constructed
// explicitly at startup, populated once, and safe for concurrent lookup
// afterwards.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Model
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Model)}
}

// Register associates model with each of names, or with the model's own name
// when none are given. Registering a name twice is a programming error and
// fails with ErrModelExists.
func (r *Registry) Register(model Model, names ...string) error {
	if model == nil {
		return fmt.Errorf("model is required")
	}
	if len(names) == 0 {
		names = []string{model.Name()}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		if name == "" {
			return fmt.Errorf("model name is required")
		}
		if _, exists := r.m[name]; exists {
			return fmt.Errorf("%w: %s", ErrModelExists, name)
		}
	}
	for _, name := range names {
		r.m[name] = model
	}
	return nil
}

// Lookup returns the model registered under name.
func (r *Registry) Lookup(name string) (Model, error) {
	r.mu.RLock()
	model, ok := r.m[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	return model, nil
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltins populates r with the models shipped with the toolkit.
func RegisterBuiltins(r *Registry) error {
	if err := r.Register(LinearModel{}, "linear"); err != nil {
		return err
	}
	if err := r.Register(DiffusionModel{}, "diffusion", "3d-diff"); err != nil {
		return err
	}
	if err := r.Register(DiffusionTripletModel{}, "diffusion-triplet", "3d-diff-triplet"); err != nil {
		return err
	}
	return nil
}
