package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tombola/internal/ratelimit/models"
	dErrors "tombola/pkg/domain-errors"
)

// slidingWindowScript trims expired entries, counts the remainder and
// conditionally records the request in a single atomic round trip.
// KEYS[1] is the bucket key; ARGV are now (ms), window (ms), cost, limit
// and a unique member prefix. Returns {allowed, remaining, resetAtMs}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local cost = tonumber(ARGV[3])
local limit = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if count + cost > limit then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local resetAt = now + window
	if oldest[2] then
		resetAt = tonumber(oldest[2]) + window
	end
	return {0, 0, resetAt}
end

for i = 1, cost do
	redis.call('ZADD', key, now, member .. '-' .. i)
end
redis.call('PEXPIRE', key, window)

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local resetAt = now + window
if oldest[2] then
	resetAt = tonumber(oldest[2]) + window
end
return {1, limit - count - cost, resetAt}
`)

// RedisBucketStore keeps each bucket as a sorted set of request timestamps
// so counts survive restarts and are shared across replicas. Members carry
// a uuid suffix because several requests can land on the same millisecond.
type RedisBucketStore struct {
	client *redis.Client
}

// NewRedisBucketStore wraps an existing client. The caller owns the client
// lifecycle.
func NewRedisBucketStore(client *redis.Client) *RedisBucketStore {
	return &RedisBucketStore{client: client}
}

// Allow checks if a request is allowed and increments the counter.
func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	return s.AllowN(ctx, key, 1, limit, window)
}

// AllowN checks if a request with custom cost is allowed, consuming 'cost'
// tokens when it is.
func (s *RedisBucketStore) AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := time.Now()
	member := fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString())

	raw, err := slidingWindowScript.Run(ctx, s.client,
		[]string{key},
		now.UnixMilli(), window.Milliseconds(), cost, limit, member,
	).Slice()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "rate limit script failed")
	}
	if len(raw) != 3 {
		return nil, dErrors.New(dErrors.CodeInternal, "rate limit script returned unexpected shape")
	}

	return &models.RateLimitResult{
		Allowed:   toInt64(raw[0]) == 1,
		Remaining: int(toInt64(raw[1])),
		ResetAt:   time.UnixMilli(toInt64(raw[2])),
		Limit:     limit,
	}, nil
}

// Reset clears the rate limit counter for a key.
func (s *RedisBucketStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "rate limit reset failed")
	}
	return nil
}

// GetCurrentCount returns the live entry count for a key without recording
// a request.
func (s *RedisBucketStore) GetCurrentCount(ctx context.Context, key string) (int, error) {
	count, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "rate limit count failed")
	}
	return int(count), nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
