package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"testing"

	"github.com/yndnr/docmesh-go/internal/core/domain"
	"github.com/yndnr/docmesh-go/internal/storage"
	"github.com/yndnr/docmesh-go/internal/storage/memory"
)

// DocumentCounts are the store sizes listing benchmarks run against.
var DocumentCounts = []int{100, 1000, 10000}

// ContentSizes are document sizes in bytes.
var ContentSizes = []int{256, 4 << 10, 64 << 10}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// htmlContent returns an HTML document of roughly size bytes.
func htmlContent(size int) string {
	const para = "<p>lorem ipsum dolor sit amet</p>"
	n := size/len(para) + 1
	return "<html><body>" + strings.Repeat(para, n) + "</body></html>"
}

type backendFactory struct {
	name string
	open func(b *testing.B) storage.Backend
}

// backends lists the embedded backends; postgres needs a server.
func backends() []backendFactory {
	return []backendFactory{
		{storage.BackendMemory, func(b *testing.B) storage.Backend {
			return memory.New()
		}},
		{storage.BackendBolt, func(b *testing.B) storage.Backend {
			be, err := storage.OpenBolt(storage.Options{DataDir: b.TempDir(), Logger: discard})
			if err != nil {
				b.Fatalf("open bolt: %v", err)
			}
			b.Cleanup(func() { _ = be.Close() })
			return be
		}},
		{storage.BackendBadger, func(b *testing.B) storage.Backend {
			cfg := storage.DefaultBadgerConfig()
			cfg.SyncWrites = false
			be, err := storage.OpenBadger(storage.Options{DataDir: b.TempDir(), Badger: cfg, Logger: discard})
			if err != nil {
				b.Fatalf("open badger: %v", err)
			}
			b.Cleanup(func() { _ = be.Close() })
			return be
		}},
	}
}

// prefill stores count HTML documents and returns their ids.
func prefill(ctx context.Context, b *testing.B, store storage.Store, count, size int) []string {
	b.Helper()
	content := htmlContent(size)
	ids := make([]string, count)
	for i := range ids {
		doc := domain.NewDocument(domain.KindHTML, content)
		if err := store.Create(ctx, doc); err != nil {
			b.Fatalf("prefill %d: %v", i, err)
		}
		ids[i] = doc.ID
	}
	return ids
}

// reportMemory reports heap usage after a GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.HeapAlloc)/(1<<20), prefix+"_heap_MB")
}

func sizeName(n int) string {
	if n >= 1<<10 {
		return fmt.Sprintf("%dKiB", n>>10)
	}
	return fmt.Sprintf("%dB", n)
}
