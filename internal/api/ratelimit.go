package api

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/techytcm/QR-CODE-GENARATOR/internal/errors"
)

// RateLimiter is the quota contract the service expects from its external
// rate-limiting collaborator. The core doesn't implement the token bucket
// itself; it only signals over-limit to the caller as a 429.
type RateLimiter interface {
	// Allow reports whether the client may perform one more request.
	Allow(clientIP string) bool
}

// RateLimit returns a middleware enforcing the given limiter. A nil limiter
// disables enforcement entirely.
func RateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow(c.ClientIP()) {
			respondError(c, apperrors.ErrQuotaExceeded)
			c.Abort()
			return
		}
		c.Next()
	}
}
