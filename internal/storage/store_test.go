package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/docmesh-go/internal/core/domain"
)

// testBackendContract exercises the Store contract on every kind of b.
func testBackendContract(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	for _, kind := range domain.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			s := b.Store(kind)
			require.NotNil(t, s)

			doc := domain.NewDocument(kind, "<doc kind='"+kind.String()+"'/>")
			if kind == domain.KindXSLT {
				doc.XSDRef = domain.NewID()
			}

			exists, err := s.Exists(ctx, doc.ID)
			require.NoError(t, err)
			require.False(t, exists)

			_, err = s.Get(ctx, doc.ID)
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Create(ctx, doc))
			require.ErrorIs(t, s.Create(ctx, doc), ErrExists)

			exists, err = s.Exists(ctx, doc.ID)
			require.NoError(t, err)
			require.True(t, exists)

			got, err := s.Get(ctx, doc.ID)
			require.NoError(t, err)
			require.Equal(t, doc, got)

			ids, err := s.List(ctx)
			require.NoError(t, err)
			require.Contains(t, ids, doc.ID)

			require.NoError(t, s.Delete(ctx, doc.ID))
			require.ErrorIs(t, s.Delete(ctx, doc.ID), ErrNotFound)

			ids, err = s.List(ctx)
			require.NoError(t, err)
			require.NotContains(t, ids, doc.ID)
		})
	}

	t.Run("kinds are separate namespaces", func(t *testing.T) {
		doc := domain.NewDocument(domain.KindXML, "<a/>")
		require.NoError(t, b.Store(domain.KindXML).Create(ctx, doc))

		exists, err := b.Store(domain.KindXSD).Exists(ctx, doc.ID)
		require.NoError(t, err)
		require.False(t, exists)

		require.NoError(t, b.Store(domain.KindXML).Delete(ctx, doc.ID))
	})
}

func testBadgerOptions(t *testing.T) Options {
	return Options{
		DataDir: t.TempDir(),
		Badger: BadgerConfig{
			GCInterval: time.Hour, // keep the GC loop out of the way
			SyncWrites: false,
		},
		Logger: slog.Default(),
	}
}

func TestBadgerBackend_Contract(t *testing.T) {
	b, err := NewBadgerBackend(testBadgerOptions(t))
	require.NoError(t, err)
	defer b.Close()

	testBackendContract(t, b)
}

func TestBadgerBackend_ReopenKeepsDocuments(t *testing.T) {
	opts := testBadgerOptions(t)
	ctx := context.Background()

	b, err := NewBadgerBackend(opts)
	require.NoError(t, err)
	doc := domain.NewDocument(domain.KindHTML, "<p>persisted</p>")
	require.NoError(t, b.Store(domain.KindHTML).Create(ctx, doc))
	require.NoError(t, b.Close())

	b, err = NewBadgerBackend(opts)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Store(domain.KindHTML).Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc.Content, got.Content)
}

func TestBadgerBackend_Closed(t *testing.T) {
	b, err := NewBadgerBackend(testBadgerOptions(t))
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "second close is a no-op")

	_, err = b.Store(domain.KindXML).List(context.Background())
	require.ErrorIs(t, err, ErrClosed)

	_, err = b.GC()
	require.ErrorIs(t, err, ErrClosed)
}

func TestBadgerBackend_RequiresDataDir(t *testing.T) {
	_, err := NewBadgerBackend(Options{})
	require.Error(t, err)
}

func TestBoltBackend_Contract(t *testing.T) {
	b, err := NewBoltBackend(Options{DataDir: t.TempDir()})
	require.NoError(t, err)
	defer b.Close()

	testBackendContract(t, b)
}

func TestBoltBackend_ReopenKeepsDocuments(t *testing.T) {
	opts := Options{DataDir: t.TempDir()}
	ctx := context.Background()

	b, err := NewBoltBackend(opts)
	require.NoError(t, err)
	doc := domain.NewXSLTDocument(domain.NewID(), "<xsl:stylesheet/>")
	require.NoError(t, b.Store(domain.KindXSLT).Create(ctx, doc))
	require.NoError(t, b.Close())

	b, err = NewBoltBackend(opts)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Store(domain.KindXSLT).Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc.XSDRef, got.XSDRef)
}

func TestBoltBackend_Closed(t *testing.T) {
	b, err := NewBoltBackend(Options{DataDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = b.Store(domain.KindHTML).Exists(context.Background(), "x")
	require.ErrorIs(t, err, ErrClosed)
}

func TestPostgresBackend_Contract(t *testing.T) {
	dsn := os.Getenv("DOCMESH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DOCMESH_TEST_POSTGRES_DSN not set")
	}

	b, err := NewPostgresBackend(Options{Postgres: PostgresConfig{DSN: dsn}})
	require.NoError(t, err)
	defer b.Close()

	testBackendContract(t, b)
}

func TestPostgresConfig_ConnectionString(t *testing.T) {
	tests := []struct {
		name string
		cfg  PostgresConfig
		want string
	}{
		{
			name: "defaults",
			cfg:  PostgresConfig{Host: "db", User: "docmesh", Password: "pw", Database: "docs"},
			want: "host=db port=5432 user=docmesh password=pw dbname=docs sslmode=disable",
		},
		{
			name: "explicit",
			cfg:  PostgresConfig{Host: "db", Port: 6543, User: "u", Password: "p", Database: "d", SSLMode: "require"},
			want: "host=db port=6543 user=u password=p dbname=d sslmode=require",
		},
		{
			name: "dsn wins",
			cfg:  PostgresConfig{Host: "ignored", DSN: "postgres://u@h/d"},
			want: "postgres://u@h/d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.cfg.ConnectionString())
		})
	}
}
