package httpserver

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/yndnr/docmesh-go/internal/core/domain"
	"github.com/yndnr/docmesh-go/internal/telemetry/logger"
	"github.com/yndnr/docmesh-go/internal/telemetry/metric"
)

// Middleware wraps a Handler with additional functionality.
type Middleware func(Handler) Handler

// Chain chains multiple middlewares together. The first middleware is the
// outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Recover turns a panicking handler into a 500 response.
func Recover() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (resp *Response) {
			defer func() {
				if r := recover(); r != nil {
					logger.L(ctx).Error("panic recovered",
						"panic", fmt.Sprint(r),
						"method", req.Method,
						"path", req.Path,
						"stack", string(debug.Stack()))
					resp = NewResponse(StatusInternalServerError, domain.MIMETypeText, "Server error: internal error")
				}
			}()
			return next.ServeRequest(ctx, req)
		})
	}
}

// AccessLog logs one line per request.
func AccessLog() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) *Response {
			start := time.Now()
			resp := next.ServeRequest(ctx, req)

			logger.L(ctx).Info("request",
				"method", req.Method,
				"path", req.Path,
				"status", resp.Status(),
				"bytes", len(resp.Body()),
				"duration_ms", time.Since(start).Milliseconds())
			return resp
		})
	}
}

// Metrics records request counts and latencies per document kind.
func Metrics(reg *metric.Registry) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) *Response {
			start := time.Now()
			resp := next.ServeRequest(ctx, req)

			kind, _ := domain.ParseKind(strings.TrimPrefix(req.Path, "/"))
			reg.ObserveRequest(kind.String(), req.Method, resp.Status(), time.Since(start))
			return resp
		})
	}
}
