package storage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yndnr/docmesh-go/internal/core/domain"
)

// Common errors
var (
	ErrNotFound       = errors.New("document not found in store")
	ErrExists         = errors.New("document already exists in store")
	ErrClosed         = errors.New("store closed")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Store persists documents of a single kind.
type Store interface {
	// Exists reports whether a document with id is stored.
	Exists(ctx context.Context, id string) (bool, error)

	// List returns the ids of every stored document, in no particular order.
	List(ctx context.Context) ([]string, error)

	// Get returns the document with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Create stores doc. Returns ErrExists if the id is taken.
	Create(ctx context.Context, doc *domain.Document) error

	// Delete removes the document with id, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// Backend owns one Store per document kind and the resources behind them.
type Backend interface {
	// Store returns the store for kind. Every kind in domain.Kinds() has one.
	Store(kind domain.Kind) Store

	// Close releases the backend. Stores must not be used afterwards.
	Close() error
}

// Options carries everything a backend constructor may need.
type Options struct {
	// DataDir is the directory file-based backends write to.
	DataDir string

	Badger   BadgerConfig
	Postgres PostgresConfig

	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
