// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Values are typically set by middleware (or by the sweep runner for batch
// work) and consumed by services. Keeping this package free of net/http lets
// services import only what they need.
//
// Usage in services (read values):
//
//	practitioner := requestcontext.Practitioner(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type (
	practitionerKey struct{}
	requestIDKey    struct{}
	requestTimeKey  struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyPractitioner = practitionerKey{}
	ContextKeyRequestID    = requestIDKey{}
	ContextKeyRequestTime  = requestTimeKey{}
)

// Practitioner retrieves the acting practitioner's identifier from the context.
// Returns the empty string if not set (e.g. sweep-driven operations).
func Practitioner(ctx context.Context) string {
	if p, ok := ctx.Value(ContextKeyPractitioner).(string); ok {
		return p
	}
	return ""
}

// WithPractitioner injects the acting practitioner's identifier.
func WithPractitioner(ctx context.Context, practitionerID string) context.Context {
	return context.WithValue(ctx, ContextKeyPractitioner, practitionerID)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like the sweep
// runner, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for:
//   - Service unit tests that don't run the full HTTP middleware chain
//   - Sweep batches that need one consistent timestamp per cycle
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
