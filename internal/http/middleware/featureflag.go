package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dietoteka/dietoteka-backend/internal/http/response"
	"github.com/dietoteka/dietoteka-backend/internal/platform/envutil"
)

const (
	FeaturePZK     = "FF_PZK"
	FeatureReviews = "FF_REVIEWS"
)

// RequireFeature checks the flag on every request, not at startup, so a
// flag flip takes effect without a redeploy. A disabled surface reads as
// nonexistent.
func RequireFeature(flag string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !envutil.Bool(flag, true) {
			response.AbortError(c, http.StatusNotFound, "not_found", "not found")
			return
		}
		c.Next()
	}
}
