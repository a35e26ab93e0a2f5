package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/docmesh-go/internal/core/domain"
)

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value-log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the discard ratio that triggers a value-log rewrite.
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// SyncWrites fsyncs after each write.
	// Default: true
	SyncWrites bool
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		CacheSize:   64 << 20,
		SyncWrites:  true,
	}
}

// BadgerBackend stores every kind in one Badger database, keyed by
// "doc/<kind>/<id>".
type BadgerBackend struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger
	closed atomic.Bool

	stores map[domain.Kind]*badgerStore

	lastGCTime       atomic.Int64 // Unix milliseconds
	metricsTotalSize prometheus.GaugeFunc
	metricsLastGC    prometheus.GaugeFunc

	stopCh chan struct{}
	doneCh chan struct{}
}

// OpenBadger opens a Badger backend under opts.DataDir/badger.
func OpenBadger(opts Options) (Backend, error) {
	return NewBadgerBackend(opts)
}

// NewBadgerBackend opens a Badger backend under opts.DataDir/badger.
func NewBadgerBackend(opts Options) (*BadgerBackend, error) {
	if opts.DataDir == "" {
		return nil, fmt.Errorf("badger: data dir is required")
	}
	logger := opts.logger().With("backend", BackendBadger)

	cfg := opts.Badger
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = DefaultBadgerConfig().GCInterval
	}
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		cfg.GCThreshold = DefaultBadgerConfig().GCThreshold
	}

	dir := filepath.Join(opts.DataDir, "badger")
	bopts := badger.DefaultOptions(dir)
	bopts.Logger = &badgerLogger{logger: logger}
	bopts.SyncWrites = cfg.SyncWrites
	if cfg.CacheSize > 0 {
		bopts.BlockCacheSize = cfg.CacheSize
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	b := &BadgerBackend{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stores: make(map[domain.Kind]*badgerStore),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	for _, kind := range domain.Kinds() {
		b.stores[kind] = &badgerStore{backend: b, kind: kind, prefix: []byte("doc/" + kind.String() + "/")}
	}

	go b.gcLoop()

	logger.Info("badger backend started",
		"dir", dir,
		"cache_size", bopts.BlockCacheSize,
		"gc_interval", cfg.GCInterval)

	return b, nil
}

// Store returns the store for kind.
func (b *BadgerBackend) Store(kind domain.Kind) Store {
	return b.stores[kind]
}

// GC runs value-log garbage collection until Badger reports nothing left to
// rewrite. Returns the number of rewrite cycles.
func (b *BadgerBackend) GC() (int, error) {
	if b.closed.Load() {
		return 0, ErrClosed
	}
	start := time.Now()
	cycles := 0
	for {
		err := b.db.RunValueLogGC(b.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return cycles, fmt.Errorf("gc: %w", err)
		}
		cycles++
	}
	b.lastGCTime.Store(time.Now().UnixMilli())
	b.logger.Debug("gc completed", "cycles", cycles, "elapsed", time.Since(start))
	return cycles, nil
}

// Close stops the GC loop and closes the database.
func (b *BadgerBackend) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.logger.Info("shutting down badger backend")

	close(b.stopCh)
	<-b.doneCh

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// RegisterMetrics registers Badger size and GC gauges with registry.
// Returns the backend for method chaining.
func (b *BadgerBackend) RegisterMetrics(registry prometheus.Registerer) *BadgerBackend {
	b.metricsTotalSize = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "docmesh",
		Subsystem: "badger",
		Name:      "total_size_bytes",
		Help:      "Badger storage size in bytes (LSM + value log)",
	}, func() float64 {
		if b.closed.Load() {
			return 0
		}
		lsm, vlog := b.db.Size()
		return float64(lsm + vlog)
	})

	b.metricsLastGC = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "docmesh",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	}, func() float64 {
		return float64(b.lastGCTime.Load()) / 1000.0
	})

	registry.MustRegister(b.metricsTotalSize, b.metricsLastGC)
	return b
}

func (b *BadgerBackend) gcLoop() {
	defer close(b.doneCh)

	ticker := time.NewTicker(b.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := b.GC(); err != nil {
				b.logger.Error("auto gc failed", "error", err)
			}
		case <-b.stopCh:
			return
		}
	}
}

// badgerStore is the per-kind view over a BadgerBackend.
type badgerStore struct {
	backend *BadgerBackend
	kind    domain.Kind
	prefix  []byte
}

func (s *badgerStore) key(id string) []byte {
	k := make([]byte, 0, len(s.prefix)+len(id))
	k = append(k, s.prefix...)
	return append(k, id...)
}

func (s *badgerStore) db() (*badger.DB, error) {
	if s.backend.closed.Load() {
		return nil, ErrClosed
	}
	return s.backend.db, nil
}

func (s *badgerStore) Exists(ctx context.Context, id string) (bool, error) {
	db, err := s.db()
	if err != nil {
		return false, err
	}
	found := false
	err = db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(s.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

func (s *badgerStore) List(ctx context.Context) ([]string, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	ids := []string{}
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), string(s.prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *badgerStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	var value []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return decodeDocument(s.kind, id, value)
}

func (s *badgerStore) Create(ctx context.Context, doc *domain.Document) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	value, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		key := s.key(doc.ID)
		if _, err := txn.Get(key); err == nil {
			return ErrExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, value)
	})
}

func (s *badgerStore) Delete(ctx context.Context, id string) error {
	db, err := s.db()
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		key := s.key(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
