package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterFixedWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return now })
	limiter := New(store, "api", 2, time.Minute)

	for i := 1; i <= 2; i++ {
		allowed, count, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, int64(i), count)
	}

	allowed, count, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(3), count)

	// other clients have their own window
	allowed, _, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)

	now = now.Add(time.Minute + time.Second)
	allowed, count, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count)
}

func TestLimiterDisabled(t *testing.T) {
	limiter := New(nil, "api", 10, time.Minute)
	assert.False(t, limiter.Enabled())

	allowed, _, err := limiter.Allow(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.False(t, New(NewMemoryStore(), "api", 0, time.Minute).Enabled())
}

func TestRedisStoreSetsExpiryOnce(t *testing.T) {
	mock := newMockCmdable()
	store := &RedisStore{store: mock}
	limiter := New(store, "api", 1, time.Minute)

	allowed, _, err := limiter.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, allowed)

	require.Len(t, mock.expireCalls, 1)
	assert.Equal(t, "rl:api:1.2.3.4", mock.expireCalls[0])
}

func TestRedisStoreRepairsCounterWithoutExpiry(t *testing.T) {
	mock := newMockCmdable()
	// a previous EXPIRE never landed
	mock.incr["rl:api:5.6.7.8"] = 7
	store := &RedisStore{store: mock}

	count, err := store.IncrWithTTL(context.Background(), "rl:api:5.6.7.8", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(8), count)
	assert.Equal(t, []string{"rl:api:5.6.7.8"}, mock.expireCalls)
	assert.Equal(t, 1, mock.transactions)

	_, err = store.IncrWithTTL(context.Background(), "rl:api:5.6.7.8", time.Minute)
	require.NoError(t, err)
	assert.Len(t, mock.expireCalls, 1)
	assert.Equal(t, 2, mock.transactions)
}

func TestRedisStorePipelineError(t *testing.T) {
	mock := newMockCmdable()
	mock.txErr = redis.ErrClosed
	store := &RedisStore{store: mock}

	_, err := store.IncrWithTTL(context.Background(), "rl:api:k", time.Minute)
	assert.ErrorIs(t, err, redis.ErrClosed)
	assert.Empty(t, mock.expireCalls)
}

// mockCmdable answers pipelined INCR and TTL from memory. Keys start with no
// expiry until Expire is called.
type mockCmdable struct {
	incr         map[string]int64
	ttl          map[string]time.Duration
	expireCalls  []string
	transactions int
	txErr        error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{incr: map[string]int64{}, ttl: map[string]time.Duration{}}
}

func (m *mockCmdable) TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	if m.txErr != nil {
		return nil, m.txErr
	}
	m.transactions++
	return nil, fn(mockPipeliner{m: m})
}

func (m *mockCmdable) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, key)
	m.ttl[key] = expiration
	return redis.NewBoolResult(true, nil)
}

// mockPipeliner implements only the commands IncrWithTTL queues.
type mockPipeliner struct {
	redis.Pipeliner
	m *mockCmdable
}

func (p mockPipeliner) Incr(_ context.Context, key string) *redis.IntCmd {
	p.m.incr[key]++
	return redis.NewIntResult(p.m.incr[key], nil)
}

func (p mockPipeliner) TTL(_ context.Context, key string) *redis.DurationCmd {
	if ttl, ok := p.m.ttl[key]; ok {
		return redis.NewDurationResult(ttl, nil)
	}
	return redis.NewDurationResult(noExpiry, nil)
}
