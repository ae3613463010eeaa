package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/taskhub/internal/http/middlewares"
)

func setupLimitedRoute(l middlewares.Limiter, keyFn func(*gin.Context) string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ping", middlewares.RateLimiterMiddleware(l, keyFn), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r
}

func TestRateLimiterMiddleware_EnforcesWindow(t *testing.T) {
	limiter := middlewares.NewRateLimiter(2, time.Minute)
	r := setupLimitedRoute(limiter, middlewares.KeyByIP)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("request %d got %d, want 200", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request got %d, want 429", w.Code)
	}

	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on 429")
	}
}

// A key function that cannot derive a key must fall back to per-IP
// bucketing instead of letting every caller share the empty bucket.
func TestRateLimiterMiddleware_EmptyKeyFallsBackToIP(t *testing.T) {
	limiter := middlewares.NewRateLimiter(1, time.Minute)
	r := setupLimitedRoute(limiter, func(c *gin.Context) string { return "" })

	first := httptest.NewRequest(http.MethodGet, "/ping", nil)
	first.RemoteAddr = "10.0.0.1:1234"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, first)

	if w.Code != http.StatusOK {
		t.Fatalf("first caller got %d, want 200", w.Code)
	}

	// a different address gets its own bucket
	second := httptest.NewRequest(http.MethodGet, "/ping", nil)
	second.RemoteAddr = "10.0.0.2:1234"

	w = httptest.NewRecorder()
	r.ServeHTTP(w, second)

	if w.Code != http.StatusOK {
		t.Fatalf("second caller got %d, want 200", w.Code)
	}

	// the first address is now over its limit
	repeat := httptest.NewRequest(http.MethodGet, "/ping", nil)
	repeat.RemoteAddr = "10.0.0.1:5678"

	w = httptest.NewRecorder()
	r.ServeHTTP(w, repeat)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("repeat caller got %d, want 429", w.Code)
	}
}
