// Package command provides CLI command definitions for docmesh-cli.
//
// This package defines the commands using urfave/cli/v2:
//
//   - root.go: App, global flags, client and formatter setup
//   - document.go: list, get, create and delete per document type
//   - version.go: build information
//
// Every document command takes the type (html, xml, xsd, xslt) as its
// first argument.
package command
