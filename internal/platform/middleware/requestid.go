// Package middleware provides the HTTP middleware chain shared by all
// routers: request identity, logging, recovery, timeouts, client metadata,
// and operator authentication.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"tombola/pkg/requestcontext"
)

// RequestIDHeader carries the request ID on the wire, inbound and outbound.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns every request an ID for log and event correlation. An
// inbound header is honored so IDs survive proxy hops; otherwise a fresh
// UUID is issued. The ID is echoed on the response.
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

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
