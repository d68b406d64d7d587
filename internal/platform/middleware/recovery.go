package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"tombola/pkg/requestcontext"
)

// Recovery converts handler panics into 500 responses and logs the stack.
// It must sit outermost so no panic escapes the chain.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					ctx := r.Context()
					logger.ErrorContext(ctx, "panic recovered",
						"panic", recovered,
						"method", r.Method,
						"path", r.URL.Path,
						"request_id", requestcontext.RequestID(ctx),
						"stack", string(debug.Stack()),
					)
					writeJSONError(w, http.StatusInternalServerError, "internal", "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
