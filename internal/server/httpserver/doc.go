// Package httpserver is the document-serving HTTP engine of a docmesh node.
//
// It does not use net/http. Each accepted connection carries exactly one
// request: the worker that takes it parses the request, routes it to the
// controller for the document kind, writes a framed response and closes
// the connection. Keep-alive, pipelining and chunked transfer are not
// supported.
//
// Layout:
//
//   - request.go: request parsing with line, header and body limits
//   - response.go: response framing with a derived Content-Length
//   - server.go: accept loop, bounded worker pool and admission control
//   - router.go: path routing, method dispatch and error mapping
//   - middleware.go: recovery, request logging and metrics around a Handler
package httpserver
