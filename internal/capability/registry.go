package capability

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Request carries everything a specialization needs to produce output.
// Context is the task's opaque payload; Persona is optional persona
// text fetched best-effort.
type Request struct {
	Role        string
	Description string
	Context     map[string]interface{}
	Persona     string
}

// ExecuteFunc processes a request into an output value. Failures are
// reported through the error return; the worker converts them into an
// error result rather than letting them escape the loop.
type ExecuteFunc func(ctx context.Context, req Request) (string, error)

// Registry maps specialization names to their execute implementations.
// New specializations register here; the worker loop never branches on
// the type itself.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]ExecuteFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]ExecuteFunc),
	}
}

// Register adds a specialization. Duplicate names are rejected so a
// misconfigured process fails loudly at startup.
func (r *Registry) Register(name string, fn ExecuteFunc) error {
	if name == "" {
		return fmt.Errorf("specialization name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("execute func for '%s' cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("specialization '%s' already registered", name)
	}
	r.handlers[name] = fn
	return nil
}

// Resolve returns the execute func for a specialization.
func (r *Registry) Resolve(name string) (ExecuteFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, exists := r.handlers[name]
	if !exists {
		return nil, fmt.Errorf("no specialization registered for '%s'", name)
	}
	return fn, nil
}

// Names returns the registered specialization names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
