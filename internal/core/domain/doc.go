// Package domain defines the core domain models for docmesh.
//
// Domain models are pure value objects without any IO dependencies
// or framework coupling. This package contains:
//
//   - Document: a stored HTML, XML, XSD or XSLT text blob
//   - Kind: the closed set of document kinds and their MIME types
//   - Errors: the error taxonomy shared by the controllers and the HTTP engine
package domain
