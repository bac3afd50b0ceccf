package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	if key := KeyByUserOrIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("expected ip-based key; got %q", key)
	}
	c.Set(userIDKey, "u123")
	if key := KeyByUserOrIP()(c); key != "user:u123" {
		t.Fatalf("expected user-based key; got %q", key)
	}
}

func TestRateLimiter_ReuseAndEviction(t *testing.T) {
	rl := NewRateLimiter(1, 0, nil)
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed, got %d", rl.burst)
	}
	lim := rl.limiterFor("k1")
	if rl.limiterFor("k1") != lim {
		t.Fatalf("expected the bucket to be reused")
	}

	now := time.Now()
	rl.now = func() time.Time { return now.Add(time.Hour) }
	rl.lookups = gcEvery - 1
	if rl.limiterFor("k1") == lim {
		t.Fatalf("idle bucket should have been evicted")
	}
	if rl.lookups != 0 {
		t.Fatalf("lookup counter not reset")
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, nil)
	r := newEngine(false)
	r.POST("/cases", func(c *gin.Context) {
		if c.GetHeader("X-Replay") != "" {
			c.Set(ctxKeyIdemReplay, "65f0c0ffee0000000000abcd")
		}
		c.Next()
	}, rl.Handler(), ok)

	if w := do(r, http.MethodPost, "/cases", nil, nil); w.Code != 200 {
		t.Fatalf("first request limited: %d", w.Code)
	}
	w := do(r, http.MethodPost, "/cases", nil, nil)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected 429 with Retry-After, got %d", w.Code)
	}
	if b := errorBody(t, w); b.Status != 429 || b.Message != "Too Many Requests" {
		t.Fatalf("unexpected body: %+v", b)
	}
	if w := do(r, http.MethodPost, "/cases", nil, map[string]string{"X-Replay": "1"}); w.Code != 200 {
		t.Fatalf("replays should bypass the limiter, got %d", w.Code)
	}
}
