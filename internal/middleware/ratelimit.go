package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"backoffice-api/internal/config"
)

// RateLimit returns a fixed-window limiter keyed by client IP and route,
// intended for the auth endpoints (login, register, token flows).  When
// disabled or when no Redis client is available it passes every request
// through.  Redis failures fail open: losing rate limiting is preferable
// to rejecting logins while Redis is down.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	window := cfg.Window
	limit := int64(cfg.Limit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := rateKey(cfg.Prefix, c.RealIP(), c.Path(), time.Now(), window)

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if count == 1 {
				_ = rdb.Expire(ctx, key, window).Err()
			}
			if count > limit {
				retry := int(window / time.Second)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many requests"})
			}
			return next(c)
		}
	}
}

// rateKey buckets requests into fixed windows; the window start timestamp
// is part of the key so counters from expired windows never collide.
func rateKey(prefix, ip, route string, now time.Time, window time.Duration) string {
	bucket := now.UnixMilli() / window.Milliseconds()
	return fmt.Sprintf("%s:%s:%s:%d", prefix, ip, route, bucket)
}
