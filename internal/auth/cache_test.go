package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*IdentityCache, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewIdentityCache(rdb, ttl), m
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "user:1", CacheKey(1))
	assert.Equal(t, "user:18446744073709551615", CacheKey(18446744073709551615))
}

// Without a Redis client the cache must behave like a permanently empty
// cache, never like an error source.
func TestCacheNilClientDegrades(t *testing.T) {
	ctx := context.Background()
	c := NewIdentityCache(nil, time.Minute)

	_, hit := c.Get(ctx, 1)
	assert.False(t, hit)

	// These must not panic.
	c.Set(ctx, UserInformation{ID: 1})
	c.Invalidate(ctx, 1)

	var nilCache *IdentityCache
	_, hit = nilCache.Get(ctx, 1)
	assert.False(t, hit)
	nilCache.Set(ctx, UserInformation{ID: 1})
	nilCache.Invalidate(ctx, 1)
}

// Set followed by Get within the TTL returns the stored identity; after
// Invalidate the next Get is a miss.
func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, time.Hour)

	info := UserInformation{
		ID:          7,
		Name:        "Jo",
		Email:       "jo@example.com",
		Roles:       []string{"editor"},
		Permissions: []string{"user edit", "user list"},
	}

	_, hit := c.Get(ctx, 7)
	require.False(t, hit)

	c.Set(ctx, info)
	got, hit := c.Get(ctx, 7)
	require.True(t, hit)
	assert.Equal(t, info, got)

	c.Invalidate(ctx, 7)
	_, hit = c.Get(ctx, 7)
	assert.False(t, hit)
}

func TestCacheEntriesExpire(t *testing.T) {
	ctx := context.Background()
	c, m := newTestCache(t, time.Minute)

	c.Set(ctx, UserInformation{ID: 1, Email: "a@example.com"})
	require.True(t, m.Exists(CacheKey(1)))
	assert.Equal(t, time.Minute, m.TTL(CacheKey(1)))

	m.FastForward(time.Minute + time.Second)
	_, hit := c.Get(ctx, 1)
	assert.False(t, hit)
}

func TestCacheCorruptEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	c, m := newTestCache(t, time.Hour)

	require.NoError(t, m.Set(CacheKey(2), "{not json"))
	_, hit := c.Get(ctx, 2)
	assert.False(t, hit)
}
