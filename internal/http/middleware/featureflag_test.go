package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func flagRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/pzk/ping", RequireFeature(FeaturePZK), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireFeatureDefaultsOn(t *testing.T) {
	r := flagRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pzk/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestRequireFeatureHidesDisabledSurface(t *testing.T) {
	t.Setenv(FeaturePZK, "false")

	r := flagRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pzk/ping", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestRequireFeatureReadsFlagPerRequest(t *testing.T) {
	r := flagRouter()

	t.Setenv(FeaturePZK, "false")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pzk/ping", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status with flag off = %d, want 404", w.Code)
	}

	t.Setenv(FeaturePZK, "true")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pzk/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status after flip = %d, want 200", w.Code)
	}
}
