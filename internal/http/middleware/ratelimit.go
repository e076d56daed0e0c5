package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dietoteka/dietoteka-backend/internal/http/response"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/ctxutil"
	"github.com/dietoteka/dietoteka-backend/internal/platform/ratelimit"
)

// RateLimit keys the shared token bucket on ip + user + route. A nil
// limiter disables the middleware entirely.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := buildRateKey(c)
		d := limiter.Allow(c.Request.Context(), key)

		c.Writer.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Capacity()))
		if d.Remaining >= 0 {
			c.Writer.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
		}

		if !d.Allowed {
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			if secs < 0 {
				secs = 0
			}
			c.Writer.Header().Set("Retry-After", strconv.Itoa(secs))
			response.AbortError(c, http.StatusTooManyRequests, "too_many_requests", "rate limit exceeded")
			return
		}
		c.Next()
	}
}

func buildRateKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	user := "anon"
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
		user = rd.UserID.String()
	}
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return "ip:" + ip + ":user:" + user + ":route:" + c.Request.Method + " " + route
}
