package agent

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds an agent of one kind from its config.
type Factory func(cfg Config) (Agent, error)

// Registry maps agent kinds to factories so the application layer can
// construct whatever kind the configuration names. It is safe for concurrent
// use.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with both built-in agent kinds
// registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindStochastic, func(cfg Config) (Agent, error) {
		return NewStochasticGradientAgent(cfg)
	})
	r.Register(KindDeterministic, func(cfg Config) (Agent, error) {
		return NewDeterministicGradientAgent(cfg)
	})
	return r
}

// Register adds a factory under the given kind. An existing factory with the
// same kind is replaced.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// Create builds an agent of the given kind. It returns an error when the
// kind is not registered.
func (r *Registry) Create(kind string, cfg Config) (Agent, error) {
	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("agent kind %q: not registered", kind)
	}
	return f(cfg)
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
