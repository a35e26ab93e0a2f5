// Package metric provides Prometheus metrics for docmesh.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry with the request, peer and store collectors
//   - collector.go: DocumentCollector reporting stored documents per kind
//
// Every recording method is safe to call on a nil *Registry, so components
// can be built without metrics in tests.
//
// Metrics are exposed at /metrics on the peer server.
package metric
