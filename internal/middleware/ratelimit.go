package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/civicreport/api/internal/limiter"
	"github.com/gin-gonic/gin"
)

// RateLimit counts requests per caller for action. Signed-in callers are
// counted by user id, anonymous ones by client IP. A nil limiter or a failing
// counter lets the request through.
func RateLimit(l *limiter.Limiter, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}

		clientID := c.ClientIP()
		if id, ok := c.Get(KeyUserID); ok {
			clientID = fmt.Sprintf("user-%v", id)
		}

		result, err := l.Check(c.Request.Context(), clientID, action)
		if err != nil {
			log.Printf("Warning: rate limit check failed for %s: %v", action, err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			RecordRateLimited(action)
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please try again later"})
			c.Abort()
			return
		}

		c.Next()
	}
}
