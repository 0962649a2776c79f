package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/ratelimit"
)

// RateLimit answers 429 once key has been seen limit times within window.
// Requests with an empty key are not limited.
func RateLimit(limiter ratelimit.Limiter, name string, limit int, window time.Duration, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := keyFn(c)
		if key == "" {
			c.Next()
			return
		}
		if !limiter.Allow(c.Request.Context(), name+":"+key, limit, window) {
			c.Header("Retry-After", retryAfter(window))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
			return
		}
		c.Next()
	}
}

// ByClientIP keys on the client address gin resolves from trusted proxies.
func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// ByUser keys on the authenticated user.
func ByUser(c *gin.Context) string {
	return CurrentUserID(c)
}

func retryAfter(window time.Duration) string {
	secs := int(window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
