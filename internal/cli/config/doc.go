// Package config holds docmesh-cli settings persisted in
// ~/.docmesh/cli.yaml. Flags and DOCMESH_* environment variables
// override the file.
package config
