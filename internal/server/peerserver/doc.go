// Package peerserver serves the node-to-node RPC contract.
//
// Other nodes call it to list, fetch and delete the documents this node
// holds locally. The same listener exposes Prometheus metrics on /metrics
// and a liveness probe on /health.
package peerserver
