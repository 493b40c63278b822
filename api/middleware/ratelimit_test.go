package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Junaid-liberatelabs/capterra-scrapper/config"
)

func rateLimitedRouter(cfg config.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(cfg))
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimit_BurstThenRejects(t *testing.T) {
	r := rateLimitedRouter(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst requests = %v, first two should pass", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
}

func TestRateLimit_IdentitiesIsolated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Simulate the auth middleware tagging each request with its key.
	r.Use(func(c *gin.Context) {
		c.Set("api_key", c.GetHeader("X-API-Key"))
	})
	r.Use(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}))
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set("X-API-Key", key)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("key-a"); code != http.StatusOK {
		t.Errorf("first request for key-a = %d, want 200", code)
	}
	if code := send("key-a"); code != http.StatusTooManyRequests {
		t.Errorf("second request for key-a = %d, want 429", code)
	}
	if code := send("key-b"); code != http.StatusOK {
		t.Errorf("first request for key-b = %d, want 200: buckets are per identity", code)
	}
}
