// Package output renders docmesh-cli results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned text tables for terminals
//   - json.go: indented JSON for scripting
//   - yaml.go: YAML via gopkg.in/yaml.v3
//
// Values that know their tabular shape implement Tabular; other values
// go through reflection over slices of structs.
package output
