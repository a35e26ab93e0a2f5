// Package main provides the entry point for docmesh-server.
//
// The server is one docmesh node. It provides:
//
//   - the document HTTP interface (html, xml, xsd, xslt) on server.http.addr
//   - the peer RPC interface, /metrics and /health on server.peer.addr
//
// Usage:
//
//	docmesh-server [flags]
//	docmesh-server --config /etc/docmesh/server.yaml
//
// The server loads configuration, opens the configured store backend,
// dials the configured peers and starts both listeners. SIGINT or SIGTERM
// stops the listeners and closes the store.
package main
