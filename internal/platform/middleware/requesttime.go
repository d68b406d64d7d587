package middleware

import (
	"net/http"
	"time"

	"tombola/pkg/requestcontext"
)

// RequestTime captures the current time once at the start of the request so
// every layer below, deadline checks included, sees the same now.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
