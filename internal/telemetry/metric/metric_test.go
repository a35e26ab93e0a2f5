package metric

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var errNotFound = errors.New("not found")

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry

	// None of these may panic.
	r.ObserveRequest("xml", "GET", 200, time.Millisecond)
	r.SetQueueDepth(3)
	r.IncRejected()
	r.IncMalformed()
	r.ObservePeerCall("Server 2", "list", time.Millisecond, nil, errNotFound)
	r.ObserveStoreOp("xml", "get", nil, errNotFound)
}

func TestRegistry_ObserveRequest(t *testing.T) {
	r := NewRegistry()

	r.ObserveRequest("xml", "GET", 200, time.Millisecond)
	r.ObserveRequest("xml", "GET", 200, time.Millisecond)
	r.ObserveRequest("", "GET", 404, time.Millisecond)

	if got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues("xml", "GET", "200")); got != 2 {
		t.Errorf("xml GET 200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues("none", "GET", "404")); got != 1 {
		t.Errorf("none GET 404 = %v, want 1", got)
	}
}

func TestRegistry_RequestDurationHelp(t *testing.T) {
	r := NewRegistry()

	ch := make(chan *prometheus.Desc, 1)
	r.RequestDuration.Describe(ch)
	desc := (<-ch).String()

	if !strings.Contains(desc, "request handler") {
		t.Errorf("RequestDuration help = %s, want it to describe handler time", desc)
	}
	if strings.Contains(desc, "accept") {
		t.Errorf("RequestDuration help = %s, must not claim accept-to-write time", desc)
	}
}

func TestRegistry_Outcomes(t *testing.T) {
	r := NewRegistry()

	r.ObservePeerCall("p", "content", 0, nil, errNotFound)
	r.ObservePeerCall("p", "content", 0, errNotFound, errNotFound)
	r.ObservePeerCall("p", "content", 0, errors.New("boom"), errNotFound)

	for _, outcome := range []string{OutcomeOK, OutcomeNotFound, OutcomeError} {
		if got := testutil.ToFloat64(r.PeerCalls.WithLabelValues("p", "content", outcome)); got != 1 {
			t.Errorf("outcome %s = %v, want 1", outcome, got)
		}
	}
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.IncMalformed()
	r.SetQueueDepth(4)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"docmesh_http_malformed_requests_total 1",
		"docmesh_http_queue_depth 4",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestDocumentCollector(t *testing.T) {
	r := NewRegistry()
	c := NewDocumentCollector(func(context.Context) (map[string]int, error) {
		return map[string]int{"html": 2, "xml": 5}, nil
	}, nil)
	r.MustRegisterCollector(c)

	expected := `
# HELP docmesh_store_documents Documents held in the local store, by kind
# TYPE docmesh_store_documents gauge
docmesh_store_documents{kind="html"} 2
docmesh_store_documents{kind="xml"} 5
`
	if err := testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(expected), "docmesh_store_documents"); err != nil {
		t.Error(err)
	}
}

func TestDocumentCollector_ErrorYieldsNoSamples(t *testing.T) {
	c := NewDocumentCollector(func(context.Context) (map[string]int, error) {
		return nil, errors.New("store closed")
	}, nil)

	if n := testutil.CollectAndCount(c); n != 0 {
		t.Errorf("CollectAndCount() = %d, want 0", n)
	}
}
