// Package ratelimit implements fixed-window request counters with pluggable
// storage: an in-process map for single instances and Redis when limits must
// hold across replicas.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store increments a counter and starts its expiry on the first hit of a window.
type Store interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Limiter applies a fixed-window limit per key.
type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
	prefix string
}

// New builds a limiter. A non-positive limit or window disables limiting.
func New(store Store, name string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		store:  store,
		limit:  int64(limit),
		window: window,
		prefix: strings.ToLower(strings.TrimSpace(name)),
	}
}

// Enabled reports whether the limiter will ever block.
func (l *Limiter) Enabled() bool {
	return l != nil && l.store != nil && l.limit > 0 && l.window > 0
}

// Limit returns the configured number of requests per window.
func (l *Limiter) Limit() int64 { return l.limit }

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Allow counts one hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	if !l.Enabled() {
		return true, 0, nil
	}
	count, err := l.store.IncrWithTTL(ctx, l.key(key), l.window)
	if err != nil {
		return false, 0, fmt.Errorf("rate limit increment: %w", err)
	}
	return count <= l.limit, count, nil
}

func (l *Limiter) key(raw string) string {
	if raw == "" {
		raw = "unknown"
	}
	if l.prefix == "" {
		return "rl:" + raw
	}
	return fmt.Sprintf("rl:%s:%s", l.prefix, raw)
}
