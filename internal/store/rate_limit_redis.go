package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisRateLimitStore keeps one sorted set per key, scored by the hit time in
// nanoseconds, so the counters are shared by every server instance.
type redisRateLimitStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRateLimitStore constructs a [RateLimitStore] over client. Keys are
// stored as "<keyPrefix>:<key>".
func NewRedisRateLimitStore(client *redis.Client, keyPrefix string) RateLimitStore {
	return &redisRateLimitStore{client: client, keyPrefix: keyPrefix}
}

func (s *redisRateLimitStore) Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, time.Duration, error) {
	if window <= 0 || limit <= 0 {
		return false, 0, errors.New("limit and window must be positive")
	}

	redisKey := s.key(key)
	threshold := fmt.Sprintf("%d", now.Add(-window).UnixNano())

	var count *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", threshold)
		count = pipe.ZCard(ctx, redisKey)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("redis trim window: %w", err)
	}

	if count.Val() >= int64(limit) {
		retryAfter, err := s.retryAfter(ctx, redisKey, window, now)
		return false, retryAfter, err
	}

	member := redis.Z{Score: float64(now.UnixNano()), Member: fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, redisKey, member)
		pipe.Expire(ctx, redisKey, window)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("redis record hit: %w", err)
	}

	return true, 0, nil
}

// retryAfter is the time until the oldest hit in the window expires.
func (s *redisRateLimitStore) retryAfter(ctx context.Context, redisKey string, window time.Duration, now time.Time) (time.Duration, error) {
	oldest, err := s.client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
	if err != nil {
		return window, fmt.Errorf("redis oldest hit: %w", err)
	}
	if len(oldest) == 0 {
		return window, nil
	}

	wait := time.Unix(0, int64(oldest[0].Score)).Add(window).Sub(now)
	if wait < 0 {
		return 0, nil
	}
	return wait, nil
}

func (s *redisRateLimitStore) key(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.keyPrefix, key)
}
