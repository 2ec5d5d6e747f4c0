package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type counterCmdable interface {
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// noExpiry is what TTL reports for a key that exists without a timeout.
const noExpiry = time.Duration(-1)

// RedisStore keeps counters in Redis so every instance shares the window.
type RedisStore struct {
	store counterCmdable
	raw   *redis.Client
}

// NewRedisStore parses url, connects and pings the server.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{store: raw, raw: raw}, nil
}

func (s *RedisStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if s.store == nil {
		return 0, errors.New("redis client not initialized")
	}
	var (
		incr    *redis.IntCmd
		current *redis.DurationCmd
	)
	// INCR and TTL go out in one MULTI round trip.
	if _, err := s.store.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		current = pipe.TTL(ctx, key)
		return nil
	}); err != nil {
		return 0, err
	}
	count := incr.Val()
	// A counter left without a timeout, whether fresh or orphaned by a failed
	// EXPIRE, gets one now so it cannot block the client forever.
	if ttl > 0 && current.Val() == noExpiry {
		if _, err := s.store.Expire(ctx, key, ttl).Result(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// Close shuts down the underlying client if one was opened.
func (s *RedisStore) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}
