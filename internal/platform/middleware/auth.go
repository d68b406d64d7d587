package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"tombola/pkg/domain"
	"tombola/pkg/requestcontext"
	"tombola/pkg/secrets"
)

// OperatorKeyHeader carries the pre-shared operator key as an alternative
// to a bearer token, for deployments that script against the admin surface.
const OperatorKeyHeader = "X-Operator-Key"

// TokenClaims are the claims the middleware needs from a validated token.
type TokenClaims struct {
	Identity string
	TokenID  string
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// OperatorKey is the pre-shared key alternative to token auth. Requests
// proving knowledge of the key act as Identity.
type OperatorKey struct {
	Hash     string
	Identity domain.Identity
}

// RequireOperator guards the administrative endpoints. A request passes by
// presenting either a valid bearer token, in which case the token subject
// becomes the caller identity, or the pre-shared operator key, in which
// case the configured operator identity does. The caller lands in the
// request context for the service layer's own authorization checks.
func RequireOperator(validator TokenValidator, key *OperatorKey, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			if provided := r.Header.Get(OperatorKeyHeader); provided != "" && key != nil {
				if err := secrets.Verify(provided, key.Hash); err != nil {
					logger.WarnContext(ctx, "unauthorized access - operator key mismatch",
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid operator key")
					return
				}
				ctx = requestcontext.WithCaller(ctx, key.Identity)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			if token, ok := strings.CutPrefix(authHeader, bearerPrefix); ok {
				claims, err := validator.ValidateToken(token)
				if err != nil {
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
					return
				}

				caller, err := domain.ParseIdentity(claims.Identity)
				if err != nil {
					logger.WarnContext(ctx, "unauthorized access - token subject is not a valid identity",
						"error", err,
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
					return
				}

				ctx = requestcontext.WithCaller(ctx, caller)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			logger.WarnContext(ctx, "unauthorized access - missing credentials",
				"request_id", requestID,
			)
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
		})
	}
}

// writeJSONError writes a JSON error response with the given status code
// and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}
