package logger

import (
	"context"
	"log/slog"
)

type contextKey int

const (
	loggerKey contextKey = iota
	requestKey
)

// Request holds the attributes L binds to every record logged while one
// HTTP request is served.
type Request struct {
	ID         string
	RemoteAddr string
	// Kind is the document kind the request addresses, once routed.
	Kind string
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the context's logger, or slog.Default() wrapped.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Wrap(nil)
}

// WithRequest starts the request attributes for a connection.
func WithRequest(ctx context.Context, id, remoteAddr string) context.Context {
	return context.WithValue(ctx, requestKey, Request{ID: id, RemoteAddr: remoteAddr})
}

// WithKind records the routed document kind, keeping the request id and
// remote address.
func WithKind(ctx context.Context, kind string) context.Context {
	r := RequestFromContext(ctx)
	r.Kind = kind
	return context.WithValue(ctx, requestKey, r)
}

// RequestFromContext returns the request attributes, zero if none were set.
func RequestFromContext(ctx context.Context) Request {
	r, _ := ctx.Value(requestKey).(Request)
	return r
}

// L returns the context's logger with the set request attributes bound.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	r := RequestFromContext(ctx)

	var attrs []any
	if r.ID != "" {
		attrs = append(attrs, slog.String("request_id", r.ID))
	}
	if r.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote_addr", r.RemoteAddr))
	}
	if r.Kind != "" {
		attrs = append(attrs, slog.String("kind", r.Kind))
	}
	if len(attrs) == 0 {
		return l
	}
	return l.With(attrs...)
}
