// Package xmlproc validates XML against XSD schemas and applies XSLT
// stylesheets.
//
// The LibXML engine binds libxml2 (schema validation) and libxslt
// (transformation) through cgo. Callers depend on the Engine interface so the
// document service can be tested without either library.
package xmlproc
