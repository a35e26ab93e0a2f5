package storage

import (
	"fmt"
	"sort"
	"sync"
)

// Backend names.
const (
	BackendBadger   = "badger"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// OpenFunc constructs a Backend from Options.
type OpenFunc func(opts Options) (Backend, error)

// Registry maps backend names to constructors.
//
// It is built once at startup; configuration verification consults it so an
// unknown backend is rejected before anything is opened.
type Registry struct {
	mu      sync.RWMutex
	openers map[string]OpenFunc
}

// NewRegistry returns a registry holding the backends implemented in this
// package: badger, bolt and postgres.
func NewRegistry() *Registry {
	r := &Registry{openers: make(map[string]OpenFunc)}
	r.Register(BackendBadger, OpenBadger)
	r.Register(BackendBolt, OpenBolt)
	r.Register(BackendPostgres, OpenPostgres)
	return r
}

// Register adds or replaces the constructor for name.
func (r *Registry) Register(name string, fn OpenFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openers[name] = fn
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.openers[name]
	return ok
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.openers))
	for name := range r.openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open constructs the backend registered under name.
func (r *Registry) Open(name string, opts Options) (Backend, error) {
	r.mu.RLock()
	fn, ok := r.openers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownBackend, name, r.Names())
	}
	return fn(opts)
}
