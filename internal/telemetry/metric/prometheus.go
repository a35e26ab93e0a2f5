package metric

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docmesh"

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// HTTP engine
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	QueueDepth          prometheus.Gauge
	ConnectionsRejected prometheus.Counter
	MalformedRequests   prometheus.Counter

	// Federation
	PeerCalls    *prometheus.CounterVec
	PeerDuration *prometheus.HistogramVec

	// Persistence
	StoreOps *prometheus.CounterVec
}

// NewRegistry creates a registry with every docmesh collector plus the Go
// runtime and process collectors registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests handled, by document kind, method and status code",
		}, []string{"kind", "method", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent in the request handler, from dispatch to response built",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "method"}),

		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "queue_depth",
			Help:      "Accepted connections waiting for a worker",
		}),

		ConnectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "connections_rejected_total",
			Help:      "Connections answered with 503 because the queue was full",
		}),

		MalformedRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "malformed_requests_total",
			Help:      "Requests rejected by the parser",
		}),

		PeerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "peer",
			Name:      "calls_total",
			Help:      "Peer RPC calls, by peer, operation and outcome",
		}, []string{"peer", "op", "outcome"}),

		PeerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "peer",
			Name:      "call_duration_seconds",
			Help:      "Peer RPC latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"peer", "op"}),

		StoreOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Local store operations, by kind, operation and outcome",
		}, []string{"kind", "op", "outcome"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RequestsTotal,
		r.RequestDuration,
		r.QueueDepth,
		r.ConnectionsRejected,
		r.MalformedRequests,
		r.PeerCalls,
		r.PeerDuration,
		r.StoreOps,
	)
	return r
}

// Registerer exposes the underlying registry for components that own their
// own collectors (e.g. the Badger backend).
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveRequest records one finished HTTP request.
func (r *Registry) ObserveRequest(kind, method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	if kind == "" {
		kind = "none"
	}
	r.RequestsTotal.WithLabelValues(kind, method, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(kind, method).Observe(elapsed.Seconds())
}

// SetQueueDepth records the number of queued connections.
func (r *Registry) SetQueueDepth(n int) {
	if r == nil {
		return
	}
	r.QueueDepth.Set(float64(n))
}

// IncRejected counts a connection turned away with 503.
func (r *Registry) IncRejected() {
	if r == nil {
		return
	}
	r.ConnectionsRejected.Inc()
}

// IncMalformed counts a request the parser rejected.
func (r *Registry) IncMalformed() {
	if r == nil {
		return
	}
	r.MalformedRequests.Inc()
}

// ObservePeerCall records one peer RPC. notFound classifies err.
func (r *Registry) ObservePeerCall(peer, op string, elapsed time.Duration, err error, notFound error) {
	if r == nil {
		return
	}
	r.PeerCalls.WithLabelValues(peer, op, outcome(err, notFound)).Inc()
	r.PeerDuration.WithLabelValues(peer, op).Observe(elapsed.Seconds())
}

// ObserveStoreOp records one local store operation. notFound classifies err.
func (r *Registry) ObserveStoreOp(kind, op string, err error, notFound error) {
	if r == nil {
		return
	}
	r.StoreOps.WithLabelValues(kind, op, outcome(err, notFound)).Inc()
}

func outcome(err, notFound error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case notFound != nil && errors.Is(err, notFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}
