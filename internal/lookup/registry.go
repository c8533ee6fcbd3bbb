package lookup

import "sync"

// Registry maps driver names to factories and metadata. Registration
// order is remembered so the first registered driver can act as the
// default, but callers must not rely on any particular completion order
// when racing.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]registryEntry[T]
	order   []string
}

type registryEntry[T any] struct {
	factory  Factory[T]
	metadata map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		entries: make(map[string]registryEntry[T]),
	}
}

// Register inserts or overwrites the entry for name. Overwriting keeps the
// original registration position.
func (r *Registry[T]) Register(name string, factory Factory[T], metadata map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = registryEntry[T]{factory: factory, metadata: metadata}
}

// Unregister removes the entry for name and reports whether it existed.
func (r *Registry[T]) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		return false
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Names returns the registered driver names in registration order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Has reports whether name is registered.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[name]
	return ok
}

// Metadata returns a copy of the metadata registered for name.
func (r *Registry[T]) Metadata(name string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, NewDriverNotFoundError(name)
	}
	metadata := make(map[string]string, len(entry.metadata))
	for k, v := range entry.metadata {
		metadata[k] = v
	}
	return metadata, nil
}

// Load instantiates the driver registered under name.
func (r *Registry[T]) Load(name string) (Driver[T], error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, NewDriverNotFoundError(name)
	}
	driver, err := entry.factory()
	if err != nil {
		return nil, NewDriverLoadError(name, err)
	}
	return driver, nil
}
