// Package buildinfo exposes build information for the docmesh binaries.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/docmesh-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Fields left at their defaults fall back to what the Go toolchain
// embedded in the binary (module version, vcs.revision, vcs.time).
package buildinfo
