package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"

	"github.com/yndnr/docmesh-go/internal/core/domain"
)

// BoltBackend stores each kind in its own bucket of a single bbolt file.
//
// bbolt serializes write transactions and lets readers run concurrently, so
// no additional locking is needed.
type BoltBackend struct {
	db     *bbolt.DB
	path   string
	logger *slog.Logger
	closed atomic.Bool

	stores map[domain.Kind]*boltStore
}

// OpenBolt opens a bbolt backend at opts.DataDir/docmesh.db.
func OpenBolt(opts Options) (Backend, error) {
	return NewBoltBackend(opts)
}

// NewBoltBackend opens a bbolt backend at opts.DataDir/docmesh.db and
// creates the per-kind buckets.
func NewBoltBackend(opts Options) (*BoltBackend, error) {
	if opts.DataDir == "" {
		return nil, fmt.Errorf("bolt: data dir is required")
	}
	if err := os.MkdirAll(opts.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("bolt: create data dir: %w", err)
	}

	path := filepath.Join(opts.DataDir, "docmesh.db")
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, kind := range domain.Kinds() {
			if _, err := tx.CreateBucketIfNotExists([]byte(kind)); err != nil {
				return fmt.Errorf("create %s bucket: %w", kind, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt: %w", err)
	}

	b := &BoltBackend{
		db:     db,
		path:   path,
		logger: opts.logger().With("backend", BackendBolt),
		stores: make(map[domain.Kind]*boltStore),
	}
	for _, kind := range domain.Kinds() {
		b.stores[kind] = &boltStore{backend: b, kind: kind, bucket: []byte(kind)}
	}

	b.logger.Info("bolt backend started", "path", path)
	return b, nil
}

// Store returns the store for kind.
func (b *BoltBackend) Store(kind domain.Kind) Store {
	return b.stores[kind]
}

// Close releases the database file.
func (b *BoltBackend) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.logger.Info("shutting down bolt backend")
	return b.db.Close()
}

// boltStore is the per-kind view over a BoltBackend.
type boltStore struct {
	backend *BoltBackend
	kind    domain.Kind
	bucket  []byte
}

func (s *boltStore) view(fn func(b *bbolt.Bucket) error) error {
	if s.backend.closed.Load() {
		return ErrClosed
	}
	return s.backend.db.View(func(tx *bbolt.Tx) error {
		return fn(tx.Bucket(s.bucket))
	})
}

func (s *boltStore) update(fn func(b *bbolt.Bucket) error) error {
	if s.backend.closed.Load() {
		return ErrClosed
	}
	return s.backend.db.Update(func(tx *bbolt.Tx) error {
		return fn(tx.Bucket(s.bucket))
	})
}

func (s *boltStore) Exists(ctx context.Context, id string) (bool, error) {
	found := false
	err := s.view(func(b *bbolt.Bucket) error {
		found = b.Get([]byte(id)) != nil
		return nil
	})
	return found, err
}

func (s *boltStore) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := s.view(func(b *bbolt.Bucket) error {
		return b.ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *boltStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	var value []byte
	err := s.view(func(b *bbolt.Bucket) error {
		v := b.Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid for the life of the transaction.
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeDocument(s.kind, id, value)
}

func (s *boltStore) Create(ctx context.Context, doc *domain.Document) error {
	value, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	return s.update(func(b *bbolt.Bucket) error {
		if b.Get([]byte(doc.ID)) != nil {
			return ErrExists
		}
		return b.Put([]byte(doc.ID), value)
	})
}

func (s *boltStore) Delete(ctx context.Context, id string) error {
	return s.update(func(b *bbolt.Bucket) error {
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}
