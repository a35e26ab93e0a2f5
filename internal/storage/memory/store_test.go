package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/docmesh-go/internal/core/domain"
	"github.com/yndnr/docmesh-go/internal/storage"
)

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore(domain.KindXML)

	doc := domain.NewDocument(domain.KindXML, "<a/>")
	require.NoError(t, s.Create(ctx, doc))
	require.ErrorIs(t, s.Create(ctx, doc), storage.ErrExists)

	exists, err := s.Exists(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, exists)

	got, err := s.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc, got)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{doc.ID}, ids)

	require.NoError(t, s.Delete(ctx, doc.ID))
	require.ErrorIs(t, s.Delete(ctx, doc.ID), storage.ErrNotFound)

	_, err = s.Get(ctx, doc.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(domain.KindHTML)

	doc := domain.NewDocument(domain.KindHTML, "<p>original</p>")
	require.NoError(t, s.Create(ctx, doc))
	doc.Content = "mutated by caller"

	got, err := s.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "<p>original</p>", got.Content)

	got.Content = "mutated again"
	again, err := s.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "<p>original</p>", again.Content)
}

func TestBackend_OneStorePerKind(t *testing.T) {
	b := New()
	ctx := context.Background()

	for _, kind := range domain.Kinds() {
		require.NotNil(t, b.Store(kind), kind)
	}

	doc := domain.NewDocument(domain.KindXSD, "<xs:schema/>")
	require.NoError(t, b.Store(domain.KindXSD).Create(ctx, doc))

	exists, err := b.Store(domain.KindXSLT).Exists(ctx, doc.ID)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestBackend_Close(t *testing.T) {
	b := New()
	require.NoError(t, b.Close())

	_, err := b.Store(domain.KindXML).List(context.Background())
	require.ErrorIs(t, err, storage.ErrClosed)
}

func TestOpen_ViaRegistry(t *testing.T) {
	r := storage.NewRegistry()
	r.Register(storage.BackendMemory, Open)

	b, err := r.Open(storage.BackendMemory, storage.Options{})
	require.NoError(t, err)
	require.NotNil(t, b.Store(domain.KindHTML))
}

func TestStore_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	s := NewStore(domain.KindHTML)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc := domain.NewDocument(domain.KindHTML, fmt.Sprintf("<p>%d</p>", i))
			_ = s.Create(ctx, doc)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 20, s.Len())
}
