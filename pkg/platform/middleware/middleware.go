// Package middleware provides the HTTP middleware chain: request-scoped time,
// correlation IDs, the acting practitioner, and panic recovery. All
// request-scoped values travel through pkg/requestcontext so services stay
// free of net/http.
package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"supervision/pkg/requestcontext"
)

// PractitionerHeader carries the authenticated staff member's identifier,
// set by the edge proxy after authentication.
const PractitionerHeader = "X-Practitioner-Id"

// RequestIDHeader carries the correlation ID; one is generated when absent.
const RequestIDHeader = "X-Request-Id"

// RequestTime captures one timestamp at the start of the request so every
// domain operation in the request shares the same "now".
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID propagates or generates a correlation ID and echoes it back.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Practitioner lifts the authenticated practitioner's identifier into the
// request context.
func Practitioner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if practitionerID := r.Header.Get(PractitionerHeader); practitionerID != "" {
			ctx = requestcontext.WithPractitioner(ctx, practitionerID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Recovery converts handler panics into 500s instead of dropped connections.
func Recovery(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if logger != nil {
						logger.Printf("ERROR panic handling %s %s: %v", r.Method, r.URL.Path, rec)
					}
					http.Error(w, "internal error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
