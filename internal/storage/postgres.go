package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"

	"github.com/yndnr/docmesh-go/internal/core/domain"
)

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// DSN, when set, is used verbatim instead of the fields above.
	DSN string
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.User, c.Password, c.Database, sslMode)
}

const (
	postgresQueryTimeout   = 5 * time.Second
	postgresMigrateTimeout = 30 * time.Second
)

// PostgresBackend stores every kind in a single documents table keyed by
// (kind, id).
type PostgresBackend struct {
	db     *sql.DB
	logger *slog.Logger
	closed atomic.Bool

	stores map[domain.Kind]*postgresStore
}

// OpenPostgres connects to the database described by opts.Postgres.
func OpenPostgres(opts Options) (Backend, error) {
	return NewPostgresBackend(opts)
}

// NewPostgresBackend connects, verifies the connection and creates the
// schema if it does not exist.
func NewPostgresBackend(opts Options) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", opts.Postgres.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), postgresQueryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	b := &PostgresBackend{
		db:     db,
		logger: opts.logger().With("backend", BackendPostgres),
		stores: make(map[domain.Kind]*postgresStore),
	}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	for _, kind := range domain.Kinds() {
		b.stores[kind] = &postgresStore{backend: b, kind: kind}
	}

	b.logger.Info("postgres backend started",
		"host", opts.Postgres.Host,
		"database", opts.Postgres.Database)
	return b, nil
}

func (b *PostgresBackend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		kind VARCHAR(8) NOT NULL,
		id VARCHAR(64) NOT NULL,
		content TEXT NOT NULL,
		xsd_ref VARCHAR(64),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (kind, id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_xsd_ref ON documents(xsd_ref) WHERE kind = 'xslt';
	`

	ctx, cancel := context.WithTimeout(context.Background(), postgresMigrateTimeout)
	defer cancel()

	_, err := b.db.ExecContext(ctx, schema)
	return err
}

// Store returns the store for kind.
func (b *PostgresBackend) Store(kind domain.Kind) Store {
	return b.stores[kind]
}

// Close closes the connection pool.
func (b *PostgresBackend) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.logger.Info("shutting down postgres backend")
	return b.db.Close()
}

// postgresStore is the per-kind view over a PostgresBackend.
type postgresStore struct {
	backend *PostgresBackend
	kind    domain.Kind
}

func (s *postgresStore) begin(ctx context.Context) (*sql.DB, context.Context, context.CancelFunc, error) {
	if s.backend.closed.Load() {
		return nil, nil, nil, ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, postgresQueryTimeout)
	return s.backend.db, ctx, cancel, nil
}

func (s *postgresStore) Exists(ctx context.Context, id string) (bool, error) {
	db, ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return false, err
	}
	defer cancel()

	var exists bool
	err = db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM documents WHERE kind = $1 AND id = $2)",
		string(s.kind), id).Scan(&exists)
	return exists, err
}

func (s *postgresStore) List(ctx context.Context) ([]string, error) {
	db, ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	rows, err := db.QueryContext(ctx,
		"SELECT id FROM documents WHERE kind = $1 ORDER BY created_at, id", string(s.kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *postgresStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	db, ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var (
		content string
		xsdRef  sql.NullString
	)
	err = db.QueryRowContext(ctx,
		"SELECT content, xsd_ref FROM documents WHERE kind = $1 AND id = $2",
		string(s.kind), id).Scan(&content, &xsdRef)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &domain.Document{
		ID:      id,
		Kind:    s.kind,
		Content: content,
		XSDRef:  xsdRef.String,
	}, nil
}

func (s *postgresStore) Create(ctx context.Context, doc *domain.Document) error {
	db, ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	var xsdRef sql.NullString
	if doc.XSDRef != "" {
		xsdRef = sql.NullString{String: doc.XSDRef, Valid: true}
	}

	res, err := db.ExecContext(ctx, `
	INSERT INTO documents (kind, id, content, xsd_ref)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (kind, id) DO NOTHING
	`, string(s.kind), doc.ID, doc.Content, xsdRef)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExists
	}
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, id string) error {
	db, ctx, cancel, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	res, err := db.ExecContext(ctx,
		"DELETE FROM documents WHERE kind = $1 AND id = $2", string(s.kind), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
