// Package logger builds docmesh's slog handlers and carries request
// attributes through contexts.
//
// New returns a JSON or text logger whose handler masks credentials, such
// as the PostgreSQL DSN password, before a record is written. All loggers
// share one level, which SetLevel moves on a configuration reload.
//
// The HTTP engine stores a logger and the request id and remote address in
// each connection's context, and the router adds the document kind. L(ctx)
// returns the logger with those attributes bound. Components that only emit
// records take a *slog.Logger; use Logger.Slog to hand one over.
package logger
