package auth

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdentityCache is the read-through cache in front of the resolver.  The
// key is a function of the user id only; the cached value is the JSON form
// of UserInformation.  A nil Redis client degrades every operation to a
// miss or a no-op, so the service keeps working against the database alone.
//
// Invalidation contract: any mutation of a user's name, email, password,
// status or role assignments must call Invalidate after the mutating
// transaction commits and before the response is returned.  Stale
// authorization data is a security defect, not a staleness nuisance; the
// TTL only bounds the window of the set-after-invalidate race that
// read-through caching cannot fully close.
type IdentityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewIdentityCache builds a cache with the given entry lifetime.  A zero
// or negative ttl falls back to one hour.
func NewIdentityCache(rdb *redis.Client, ttl time.Duration) *IdentityCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &IdentityCache{rdb: rdb, ttl: ttl}
}

// CacheKey returns the cache key for a user id ("user:<id>").  Role and
// permission data never contribute to the key because the value itself is
// what changes.
func CacheKey(userID uint64) string {
	return "user:" + strconv.FormatUint(userID, 10)
}

// Get returns the cached identity and true on a hit.  Connection errors
// and corrupt entries count as misses.
func (c *IdentityCache) Get(ctx context.Context, userID uint64) (UserInformation, bool) {
	if c == nil || c.rdb == nil {
		return UserInformation{}, false
	}
	bs, err := c.rdb.Get(ctx, CacheKey(userID)).Bytes()
	if err != nil {
		return UserInformation{}, false
	}
	var info UserInformation
	if err := json.Unmarshal(bs, &info); err != nil {
		return UserInformation{}, false
	}
	return info, true
}

// Set stores an identity for the configured TTL.  Failures are ignored;
// the next read falls through to the resolver.
func (c *IdentityCache) Set(ctx context.Context, info UserInformation) {
	if c == nil || c.rdb == nil {
		return
	}
	bs, err := json.Marshal(info)
	if err != nil {
		return
	}
	_ = c.rdb.SetEx(ctx, CacheKey(info.ID), bs, c.ttl).Err()
}

// Invalidate drops the cached identity for a user.
func (c *IdentityCache) Invalidate(ctx context.Context, userID uint64) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, CacheKey(userID)).Err()
}
