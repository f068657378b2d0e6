// Per-IP request throttling for the HTTP API. Grounded on the
// retrieval pack's wallet-api rate-limit middleware (IP-limiting
// path): count requests in a fixed one-minute Redis window and
// reject once the configured limit plus burst allowance is
// exceeded. The teacher's own cmd/main.go references a
// middleware.RateLimit it never ships, so this repo wires a real
// one against the Redis client it already carries for estimator
// caching.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fintual/rebalancer/internal/cache"
	"github.com/fintual/rebalancer/internal/config"
)

// RateLimitMiddleware returns a gin.HandlerFunc that limits each
// client IP to cfg.RequestsPerMin+cfg.BurstSize requests per minute.
// A Redis failure fails open: the request is allowed and a warning
// is logged rather than blocking the API on a cache outage.
func RateLimitMiddleware(client *cache.Client, cfg config.RateLimitConfig, logger *logrus.Logger) gin.HandlerFunc {
	limit := cfg.RequestsPerMin + cfg.BurstSize

	return func(c *gin.Context) {
		now := time.Now()
		key := fmt.Sprintf("ratelimit:%s:%d", c.ClientIP(), now.Unix()/60)

		count, err := client.IncrWithTTL(c.Request.Context(), key, time.Minute)
		if err != nil {
			logger.Warnf("api: rate limit check failed, allowing request: %v", err)
			c.Next()
			return
		}

		remaining := limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > limit {
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
