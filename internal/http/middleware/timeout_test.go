package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestTimeout(t *testing.T) {
	r := newEngine(false)
	r.GET("/bounded", Timeout(50*time.Millisecond), func(c *gin.Context) {
		dl, ok := c.Request.Context().Deadline()
		if !ok || time.Until(dl) > 50*time.Millisecond {
			t.Fatalf("deadline not applied: %v %v", dl, ok)
		}
		<-c.Request.Context().Done()
		Abort(c, c.Request.Context().Err())
	})
	r.GET("/unbounded", Timeout(0), func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); ok {
			t.Fatalf("unexpected deadline")
		}
		c.Status(http.StatusNoContent)
	})

	w := do(r, http.MethodGet, "/bounded", nil, nil)
	if b := errorBody(t, w); w.Code != 500 || b.Message != MessageSomethingWrong {
		t.Fatalf("unexpected: %d %+v", w.Code, b)
	}
	if w := do(r, http.MethodGet, "/unbounded", nil, nil); w.Code != http.StatusNoContent {
		t.Fatalf("unexpected: %d", w.Code)
	}
}
