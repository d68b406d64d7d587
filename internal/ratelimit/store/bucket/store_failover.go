package bucket

import (
	"context"
	"log/slog"
	"time"

	"tombola/internal/ratelimit/models"
)

// Store is the contract shared by the memory, redis and failover bucket
// implementations.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
	AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*models.RateLimitResult, error)
	Reset(ctx context.Context, key string) error
	GetCurrentCount(ctx context.Context, key string) (int, error)
}

// FailoverBucketStore serves from the primary store and falls back to an
// in-process store while the primary is unhealthy. The primary keeps being
// probed on every call; the circuit needs consecutive probe successes to
// close, so the fallback stays authoritative through short recoveries.
type FailoverBucketStore struct {
	primary  Store
	fallback Store
	breaker  *CircuitBreaker
	logger   *slog.Logger
}

// NewFailoverBucketStore composes a primary and a fallback store behind a
// circuit breaker. Pass an InMemoryBucketStore as fallback.
func NewFailoverBucketStore(primary, fallback Store, logger *slog.Logger) *FailoverBucketStore {
	return &FailoverBucketStore{
		primary:  primary,
		fallback: fallback,
		breaker:  newCircuitBreaker(),
		logger:   logger,
	}
}

// Allow checks if a request is allowed and increments the counter.
func (s *FailoverBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	return s.AllowN(ctx, key, 1, limit, window)
}

// AllowN checks if a request with custom cost is allowed, consuming 'cost'
// tokens when it is.
func (s *FailoverBucketStore) AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*models.RateLimitResult, error) {
	res, err := s.primary.AllowN(ctx, key, cost, limit, window)
	if err != nil {
		if open := s.breaker.RecordFailure(); open {
			s.logger.WarnContext(ctx, "rate limit primary store unavailable, serving from fallback",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
		return s.allowFallback(ctx, key, cost, limit, window)
	}

	if closed := s.breaker.RecordSuccess(); !closed {
		// Primary answered but the circuit is still open. The fallback
		// holds the authoritative counts until the circuit closes.
		return s.allowFallback(ctx, key, cost, limit, window)
	}
	return res, nil
}

func (s *FailoverBucketStore) allowFallback(ctx context.Context, key string, cost, limit int, window time.Duration) (*models.RateLimitResult, error) {
	res, err := s.fallback.AllowN(ctx, key, cost, limit, window)
	if err != nil {
		return nil, err
	}
	res.Degraded = true
	return res, nil
}

// Reset clears the counter for a key in both stores so a recovery does not
// resurrect stale counts.
func (s *FailoverBucketStore) Reset(ctx context.Context, key string) error {
	if err := s.fallback.Reset(ctx, key); err != nil {
		return err
	}
	if err := s.primary.Reset(ctx, key); err != nil {
		s.breaker.RecordFailure()
		return err
	}
	s.breaker.RecordSuccess()
	return nil
}

// GetCurrentCount returns the current request count for a key from
// whichever store is authoritative.
func (s *FailoverBucketStore) GetCurrentCount(ctx context.Context, key string) (int, error) {
	if s.breaker.IsOpen() {
		return s.fallback.GetCurrentCount(ctx, key)
	}
	count, err := s.primary.GetCurrentCount(ctx, key)
	if err != nil {
		s.breaker.RecordFailure()
		return s.fallback.GetCurrentCount(ctx, key)
	}
	return count, nil
}
