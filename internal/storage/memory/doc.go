// Package memory provides a process-local storage backend.
//
// Documents live in sharded concurrent maps and are lost on restart. The
// backend is used by tests and by nodes configured with backend: memory.
package memory
