package config

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds the Redis client backing the identity cache and
// the auth rate limiter from REDIS_HOST, REDIS_PORT, REDIS_PASSWORD and
// REDIS_DB.  Redis is optional infrastructure: when the server cannot be
// reached at startup the function returns nil and both consumers degrade,
// identity lookups fall through to the database and rate limiting is
// disabled.
func NewRedisClient() *redis.Client {
	addr := getenv("REDIS_HOST", "localhost") + ":" + getenv("REDIS_PORT", "6379")
	dbNum, _ := strconv.Atoi(getenv("REDIS_DB", "0"))

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       dbNum,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
