// file: internal/server/middleware/ratelimit_test.go
// version: 2.0.0
// guid: b31f3de0-b0bc-4cbf-8448-7309df38f7c0

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func limitedRouter(limiter *IPRateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limiter.Middleware())
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	router.GET("/api/v1/books", ok)
	router.GET("/api/health", ok)
	return router
}

func get(router http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestNewIPRateLimiter_Defaults(t *testing.T) {
	t.Parallel()

	limiter := NewIPRateLimiter(0, 0, nil)
	assert.Equal(t, 1, limiter.perMinute)
	assert.Equal(t, 1, limiter.burst)
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	router := limitedRouter(NewIPRateLimiter(1, 1, zap.New(core)))

	assert.Equal(t, http.StatusOK, get(router, "/api/v1/books", "192.0.2.1:1234").Code)

	w := get(router, "/api/v1/books", "192.0.2.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	entries := logs.FilterMessage("rate limit exceeded").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "192.0.2.1", entries[0].ContextMap()["client_ip"])
	}

	// Each client has its own bucket
	assert.Equal(t, http.StatusOK, get(router, "/api/v1/books", "198.51.100.3:4321").Code)
}

func TestIPRateLimiter_ExemptPaths(t *testing.T) {
	t.Parallel()

	limiter := NewIPRateLimiter(1, 1, nil, "/api/health")
	router := limitedRouter(limiter)

	for range 5 {
		assert.Equal(t, http.StatusOK, get(router, "/api/health", "192.0.2.9:1").Code)
	}
	assert.Zero(t, limiter.tracked())
	assert.Equal(t, http.StatusOK, get(router, "/api/v1/books", "192.0.2.9:1").Code)
	assert.Equal(t, 1, limiter.tracked())
}

func TestIPRateLimiter_RetryAfterFloor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, NewIPRateLimiter(120, 5, nil).retryAfterSeconds())
	assert.Equal(t, 6, NewIPRateLimiter(10, 5, nil).retryAfterSeconds())
}
