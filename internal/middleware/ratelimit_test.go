package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterAllow(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests within the window should pass")
	}
	if rl.Allow("a") {
		t.Error("third request within the window should be limited")
	}
	if !rl.Allow("b") {
		t.Error("keys are limited independently")
	}
}

func TestRateLimiterStopIdempotent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()
	rl.Stop()
	if !rl.Allow("a") {
		t.Error("Allow should keep working after Stop")
	}
}

func TestRateLimitMiddlewareKeyFunc(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.Use(RateLimitMiddleware(rl, func(c *gin.Context) string {
		return c.Query("from")
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(from string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/?from="+from, nil)
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := get("alice"); code != http.StatusOK {
		t.Fatalf("first request = %d, want 200", code)
	}
	if code := get("alice"); code != http.StatusTooManyRequests {
		t.Errorf("second request = %d, want 429", code)
	}
	if code := get("bob"); code != http.StatusOK {
		t.Errorf("other sender = %d, want 200", code)
	}
}
