package bucket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tombola/internal/ratelimit/models"
)

// flakyStore is a Store whose failure mode can be toggled mid-test.
type flakyStore struct {
	mu      sync.Mutex
	failing bool
	calls   int
}

func (f *flakyStore) setFailing(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = v
}

func (f *flakyStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *flakyStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	return f.AllowN(ctx, key, 1, limit, window)
}

func (f *flakyStore) AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*models.RateLimitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing {
		return nil, errors.New("store down")
	}
	return &models.RateLimitResult{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - cost,
		ResetAt:   time.Now().Add(window),
	}, nil
}

func (f *flakyStore) Reset(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("store down")
	}
	return nil
}

func (f *flakyStore) GetCurrentCount(ctx context.Context, key string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return 0, errors.New("store down")
	}
	return 0, nil
}

type FailoverBucketStoreSuite struct {
	suite.Suite
	primary  *flakyStore
	fallback *InMemoryBucketStore
	store    *FailoverBucketStore
	ctx      context.Context
}

func TestFailoverBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(FailoverBucketStoreSuite))
}

func (s *FailoverBucketStoreSuite) SetupTest() {
	s.primary = &flakyStore{}
	s.fallback = NewInMemoryBucketStore()
	s.store = NewFailoverBucketStore(s.primary, s.fallback,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.ctx = context.Background()
}

func (s *FailoverBucketStoreSuite) TestHealthyPrimaryServes() {
	result, err := s.store.Allow(s.ctx, "test:key:failover:healthy", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.False(result.Degraded)
	s.Equal(1, s.primary.callCount())
}

func (s *FailoverBucketStoreSuite) TestPrimaryFailureFallsBack() {
	s.primary.setFailing(true)

	result, err := s.store.Allow(s.ctx, "test:key:failover:down", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.True(result.Degraded)

	// The fallback enforces the limit on its own counts.
	for range testLimit - 1 {
		_, err := s.store.Allow(s.ctx, "test:key:failover:down", testLimit, testWindow)
		s.Require().NoError(err)
	}
	result, err = s.store.Allow(s.ctx, "test:key:failover:down", testLimit, testWindow)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.True(result.Degraded)
}

func (s *FailoverBucketStoreSuite) TestCircuitNeedsConsecutiveSuccessesToClose() {
	s.primary.setFailing(true)
	for range 5 {
		_, err := s.store.Allow(s.ctx, "test:key:failover:recover", testLimit, testWindow)
		s.Require().NoError(err)
	}

	s.primary.setFailing(false)

	// First two probes succeed but the circuit is still open.
	for range 2 {
		result, err := s.store.Allow(s.ctx, "test:key:failover:recover", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Degraded)
	}

	// Third consecutive success closes the circuit.
	result, err := s.store.Allow(s.ctx, "test:key:failover:recover", testLimit, testWindow)
	s.Require().NoError(err)
	s.False(result.Degraded)
}

func (s *FailoverBucketStoreSuite) TestFailureDuringRecoveryReopens() {
	s.primary.setFailing(true)
	for range 5 {
		_, _ = s.store.Allow(s.ctx, "test:key:failover:relapse", testLimit, testWindow)
	}

	s.primary.setFailing(false)
	_, err := s.store.Allow(s.ctx, "test:key:failover:relapse", testLimit, testWindow)
	s.Require().NoError(err)

	// A relapse resets the success streak; three more are needed.
	s.primary.setFailing(true)
	_, err = s.store.Allow(s.ctx, "test:key:failover:relapse", testLimit, testWindow)
	s.Require().NoError(err)

	s.primary.setFailing(false)
	for range 2 {
		result, err := s.store.Allow(s.ctx, "test:key:failover:relapse", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Degraded)
	}
	result, err := s.store.Allow(s.ctx, "test:key:failover:relapse", testLimit, testWindow)
	s.Require().NoError(err)
	s.False(result.Degraded)
}

func (s *FailoverBucketStoreSuite) TestResetClearsFallbackCounts() {
	s.primary.setFailing(true)
	for range testLimit {
		_, err := s.store.Allow(s.ctx, "test:key:failover:reset", testLimit, testWindow)
		s.Require().NoError(err)
	}
	s.primary.setFailing(false)

	err := s.store.Reset(s.ctx, "test:key:failover:reset")
	s.Require().NoError(err)

	count, err := s.fallback.GetCurrentCount(s.ctx, "test:key:failover:reset")
	s.Require().NoError(err)
	s.Equal(0, count)
}
