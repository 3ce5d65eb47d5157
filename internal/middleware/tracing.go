// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Tracing wraps handlers in otelhttp instrumentation. Every request gets a
// server span named "METHOD /path" (e.g. "GET /api/nearby"), and incoming
// W3C trace context (traceparent/tracestate) is honored so mobile clients
// and upstream proxies can stitch traces together.
//
// Place it after RequestID in the chain so the request ID is present in the
// context when the span starts.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}
}

// GetTraceID returns the active trace ID for the request, or "" when no
// trace is recording.
func GetTraceID(r *http.Request) string {
	if spanCtx := trace.SpanContextFromContext(r.Context()); spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// GetSpanID returns the active span ID for the request, or "" when no span
// is recording.
func GetSpanID(r *http.Request) string {
	if spanCtx := trace.SpanContextFromContext(r.Context()); spanCtx.IsValid() {
		return spanCtx.SpanID().String()
	}
	return ""
}
