package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ncecere/completion-sdk/provider"
)

// Registry maps logical model names (for example "chat" or
// "deepseek:deepseek-coder") to completion models so application code
// can look models up without depending on a provider package.
type Registry interface {
	// CompletionModel returns the registered model for the given name.
	// If no such model exists, a *NoSuchModelError is returned.
	CompletionModel(name string) (provider.CompletionModel, error)

	// RegisterCompletionModel registers or replaces a model under the given name.
	// Passing a nil model removes any existing registration for that name.
	RegisterCompletionModel(name string, model provider.CompletionModel)

	// Names returns the registered names in sorted order.
	Names() []string
}

// NoSuchModelError indicates that a requested model name was not
// found in the registry.
type NoSuchModelError struct {
	// Name is the model name that was requested.
	Name string
}

func (e *NoSuchModelError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("registry: no such model %q", e.Name)
}

// InMemoryRegistry is a concurrency-safe in-memory implementation of Registry.
// Models are typically registered once at startup and then shared.
type InMemoryRegistry struct {
	mu     sync.RWMutex
	models map[string]provider.CompletionModel
}

var _ Registry = (*InMemoryRegistry)(nil)

// NewInMemoryRegistry creates a new empty in-memory registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		models: make(map[string]provider.CompletionModel),
	}
}

// CompletionModel implements Registry.CompletionModel.
func (r *InMemoryRegistry) CompletionModel(name string) (provider.CompletionModel, error) {
	r.mu.RLock()
	model, ok := r.models[name]
	r.mu.RUnlock()
	if !ok || model == nil {
		return nil, &NoSuchModelError{Name: name}
	}
	return model, nil
}

// RegisterCompletionModel implements Registry.RegisterCompletionModel.
func (r *InMemoryRegistry) RegisterCompletionModel(name string, model provider.CompletionModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if model == nil {
		delete(r.models, name)
		return
	}
	r.models[name] = model
}

// Names implements Registry.Names.
func (r *InMemoryRegistry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
