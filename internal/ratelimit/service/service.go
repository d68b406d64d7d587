// Package service decides rate limit outcomes for client-facing endpoints.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tombola/internal/ratelimit/models"
	"tombola/internal/ratelimit/store/bucket"
	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/requestcontext"
)

// Service applies a per-IP sliding window limit backed by a bucket store.
type Service struct {
	buckets bucket.Store
	limit   int
	window  time.Duration
	logger  *slog.Logger
}

// New validates the limit parameters and builds a Service.
func New(buckets bucket.Store, limit int, window time.Duration, logger *slog.Logger) (*Service, error) {
	if buckets == nil {
		return nil, errors.New("bucket store is required")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	return &Service{
		buckets: buckets,
		limit:   limit,
		window:  window,
		logger:  logger,
	}, nil
}

// CheckIP records a request from ip and reports whether it is within the
// limit. A denied result carries RetryAfter in whole seconds.
func (s *Service) CheckIP(ctx context.Context, ip string) (*models.RateLimitResult, error) {
	result, err := s.buckets.Allow(ctx, models.NewIPKey(ip), s.limit, s.window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check rate limit")
	}

	if !result.Allowed {
		result.RetryAfter = retryAfterSeconds(requestcontext.Now(ctx), result.ResetAt)
		s.logger.WarnContext(ctx, "ip rate limit exceeded",
			slog.String("ip", ip),
			slog.Int("limit", s.limit),
			slog.Int("window_seconds", int(s.window.Seconds())),
		)
	}
	return result, nil
}

// Reset clears the counter for ip. Used by operators after false positives.
func (s *Service) Reset(ctx context.Context, ip string) error {
	if err := s.buckets.Reset(ctx, models.NewIPKey(ip)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset rate limit")
	}
	return nil
}

// retryAfterSeconds rounds up so clients never retry before the window
// actually frees a slot, with a floor of one second.
func retryAfterSeconds(now, resetAt time.Time) int {
	secs := int((resetAt.Sub(now) + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
