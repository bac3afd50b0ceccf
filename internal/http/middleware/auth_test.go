package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/rescue-api/internal/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestRequireBearer(t *testing.T) {
	is := auth.NewIssuer(testSecret, time.Hour)
	admin, _, _ := is.Issue("65f0c0ffee0000000000abcd", []string{"ADMIN"})
	user, _, _ := is.Issue("65f0c0ffee0000000000beef", []string{"USER"})

	r := newEngine(false)
	var ran bool
	var seen auth.Identity
	handler := func(c *gin.Context) {
		ran = true
		seen, _ = IdentityFrom(c)
		ok(c)
	}
	r.GET("/any", RequireBearer(is), handler)
	r.GET("/admin", RequireBearer(is, "admin"), handler)

	cases := []struct {
		name, path, header string
		want               int
	}{
		{"no header", "/any", "", 401},
		{"basic scheme", "/any", "Basic " + user, 401},
		{"lowercase scheme", "/any", "bearer " + user, 401},
		{"empty token", "/any", "Bearer ", 401},
		{"garbage", "/any", "Bearer not-a-token", 401},
		{"role mismatch", "/admin", "Bearer " + user, 401},
		{"any role", "/any", "Bearer " + user, 200},
		{"admin", "/admin", "Bearer " + admin, 200},
	}
	for _, tc := range cases {
		ran = false
		hdr := map[string]string{}
		if tc.header != "" {
			hdr["Authorization"] = tc.header
		}
		w := do(r, http.MethodGet, tc.path, nil, hdr)
		if w.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d", tc.name, w.Code, tc.want)
		}
		if ran != (tc.want == 200) {
			t.Fatalf("%s: handler ran = %v", tc.name, ran)
		}
		if tc.want == 401 {
			if b := errorBody(t, w); b.Message != "Unauthorized" {
				t.Fatalf("%s: message = %q", tc.name, b.Message)
			}
		}
	}
	if seen.ID != "65f0c0ffee0000000000abcd" {
		t.Fatalf("identity not attached: %+v", seen)
	}
}

func TestRequireBearer_ExpiredLooksLikeInvalid(t *testing.T) {
	is := auth.NewIssuer(testSecret, time.Nanosecond)
	tok, _, _ := is.Issue("u1", nil)
	time.Sleep(1100 * time.Millisecond) // exp has second resolution

	r := newEngine(false)
	r.GET("/x", RequireBearer(is), ok)
	expired := do(r, http.MethodGet, "/x", nil, map[string]string{"Authorization": "Bearer " + tok})
	garbage := do(r, http.MethodGet, "/x", nil, map[string]string{"Authorization": "Bearer x.y.z"})
	if expired.Code != 401 || expired.Body.String() != garbage.Body.String() {
		t.Fatalf("expired and invalid differ: %d %s / %s", expired.Code, expired.Body.String(), garbage.Body.String())
	}
}

func TestRequireBearer_CountsFailures(t *testing.T) {
	is := auth.NewIssuer(testSecret, time.Hour)
	base := testutil.ToFloat64(authFailures.WithLabelValues("missing_header"))

	r := newEngine(false)
	r.GET("/x", RequireBearer(is), ok)
	do(r, http.MethodGet, "/x", nil, nil)

	if got := testutil.ToFloat64(authFailures.WithLabelValues("missing_header")); got != base+1 {
		t.Fatalf("auth_failures_total = %v, want %v", got, base+1)
	}
}

func TestRequireSession(t *testing.T) {
	is := auth.NewIssuer(testSecret, time.Hour)
	known, _, _ := is.Issue("65f0c0ffee0000000000abcd", nil)
	gone, _, _ := is.Issue("65f0c0ffee0000000000dead", nil)
	broken, _, _ := is.Issue("65f0c0ffee0000000000f00d", nil)

	lookup := func(_ context.Context, id string) (auth.Identity, error) {
		switch id {
		case "65f0c0ffee0000000000abcd":
			return auth.Identity{ID: id, Roles: []string{"NGO_ADMIN"}}, nil
		case "65f0c0ffee0000000000f00d":
			return auth.Identity{}, errors.New("database is locked")
		}
		return auth.Identity{}, ErrNoPrincipal
	}

	r := newEngine(false)
	var seen auth.Identity
	r.GET("/me", RequireSession(is, "", lookup), func(c *gin.Context) {
		seen, _ = IdentityFrom(c)
		ok(c)
	})

	cases := []struct {
		name, cookie string
		status       int
		msg          string
	}{
		{"missing", "", 404, MessageTokenMissing},
		{"invalid", "garbage", 401, MessageWrongToken},
		{"unknown principal", gone, 401, MessageWrongToken},
		{"lookup failure", broken, 500, MessageSomethingWrong},
		{"ok", known, 200, ""},
	}
	for _, tc := range cases {
		hdr := map[string]string{}
		if tc.cookie != "" {
			hdr["Cookie"] = DefaultSessionCookie + "=" + tc.cookie
		}
		w := do(r, http.MethodGet, "/me", nil, hdr)
		if w.Code != tc.status {
			t.Fatalf("%s: status = %d, want %d (%s)", tc.name, w.Code, tc.status, w.Body.String())
		}
		if tc.msg != "" && errorBody(t, w).Message != tc.msg {
			t.Fatalf("%s: body = %s", tc.name, w.Body.String())
		}
	}
	if !seen.HasAnyRole("NGO_ADMIN") {
		t.Fatalf("roles should come from the stored principal: %+v", seen)
	}
}

func TestBearerToken(t *testing.T) {
	if tok, reason := bearerToken("Bearer  abc "); tok != "abc" || reason != "" {
		t.Fatalf("got %q %q", tok, reason)
	}
	if _, reason := bearerToken("Token abc"); reason != "bad_scheme" {
		t.Fatalf("reason = %q", reason)
	}
}
