package memory

import (
	"context"
	"sync/atomic"

	"github.com/yndnr/docmesh-go/internal/core/domain"
	"github.com/yndnr/docmesh-go/internal/storage"
	"github.com/yndnr/docmesh-go/pkg/cmap"
)

// Backend holds one Store per document kind.
type Backend struct {
	stores map[domain.Kind]*Store
}

// Open returns a new memory backend. It satisfies storage.OpenFunc.
func Open(_ storage.Options) (storage.Backend, error) {
	return New(), nil
}

// New creates an empty memory backend.
func New() *Backend {
	b := &Backend{stores: make(map[domain.Kind]*Store)}
	for _, kind := range domain.Kinds() {
		b.stores[kind] = NewStore(kind)
	}
	return b
}

// Store returns the store for kind.
func (b *Backend) Store(kind domain.Kind) storage.Store {
	return b.stores[kind]
}

// Close marks every store closed.
func (b *Backend) Close() error {
	for _, s := range b.stores {
		s.closed.Store(true)
	}
	return nil
}

// Store is an in-memory document store for a single kind.
type Store struct {
	kind   domain.Kind
	docs   *cmap.Map[*domain.Document]
	closed atomic.Bool
}

// NewStore creates an empty store for kind.
func NewStore(kind domain.Kind) *Store {
	return &Store{
		kind: kind,
		docs: cmap.New[*domain.Document](),
	}
}

// Exists reports whether id is stored.
func (s *Store) Exists(_ context.Context, id string) (bool, error) {
	if s.closed.Load() {
		return false, storage.ErrClosed
	}
	return s.docs.Has(id), nil
}

// List returns every stored id.
func (s *Store) List(_ context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}
	return s.docs.Keys(), nil
}

// Get returns a copy of the document with id.
func (s *Store) Get(_ context.Context, id string) (*domain.Document, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}
	doc, ok := s.docs.Get(id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *doc
	return &clone, nil
}

// Create stores a copy of doc.
func (s *Store) Create(_ context.Context, doc *domain.Document) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	clone := *doc
	clone.Kind = s.kind
	if !s.docs.SetIfAbsent(doc.ID, &clone) {
		return storage.ErrExists
	}
	return nil
}

// Delete removes the document with id.
func (s *Store) Delete(_ context.Context, id string) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	if _, ok := s.docs.Pop(id); !ok {
		return storage.ErrNotFound
	}
	return nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	return s.docs.Count()
}
