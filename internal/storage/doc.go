// Package storage persists documents for a docmesh node.
//
// A Backend holds one Store per document kind. Stores are keyed by document
// id and are safe for concurrent use; each operation runs in its own
// transaction (Badger, bbolt) or pooled connection (PostgreSQL).
//
// Backends are constructed through a Registry keyed by the storage.backend
// configuration value:
//
//   - badger:   embedded LSM store under storage.data_dir (default)
//   - bolt:     single-file B+tree store under storage.data_dir
//   - postgres: documents table in a PostgreSQL database
//   - memory:   process-local maps (see package memory)
package storage
