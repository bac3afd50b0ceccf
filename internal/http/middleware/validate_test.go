package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/validation"
)

type tagBody struct {
	Name string `json:"name" validate:"required,min=2,max=60"`
}

type listQuery struct {
	Page  int `json:"page" validate:"omitempty,min=1"`
	Limit int `json:"limit" validate:"omitempty,min=1,max=100"`
}

func jsonHdr() map[string]string { return map[string]string{"Content-Type": "application/json"} }

func TestValidateBody(t *testing.T) {
	v := validation.New()
	r := newEngine(false)
	r.Use(BodyLimit(64))
	var ran bool
	r.POST("/tags", ValidateBody[tagBody](v, Strict), func(c *gin.Context) {
		ran = true
		b := Body[tagBody](c)
		c.JSON(http.StatusCreated, gin.H{"name": b.Name})
	})
	r.POST("/loose", ValidateBody[tagBody](v, AllowUnknown), ok)

	w := do(r, http.MethodPost, "/tags", strings.NewReader(`{"name":"injured"}`), jsonHdr())
	if w.Code != 201 || !ran {
		t.Fatalf("valid body rejected: %d %s", w.Code, w.Body.String())
	}

	cases := []struct {
		name, path, body string
		hdr              map[string]string
		status           int
		field            string
	}{
		{"missing field", "/tags", `{}`, jsonHdr(), 400, "name"},
		{"unknown field", "/tags", `{"name":"ok","color":"red"}`, jsonHdr(), 400, "color"},
		{"no content type", "/tags", `{"name":"ok"}`, nil, 400, "name"},
		{"array body", "/tags", `[1,2]`, jsonHdr(), 400, "value"},
		{"malformed", "/tags", `{"name":`, jsonHdr(), 400, ""},
		{"too large", "/tags", `{"name":"` + strings.Repeat("a", 100) + `"}`, jsonHdr(), 413, ""},
		{"charset", "/tags", `{"name":"ok"}`, map[string]string{"Content-Type": "application/json; charset=latin1"}, 415, ""},
		{"encoding", "/tags", `{"name":"ok"}`, map[string]string{"Content-Type": "application/json", "Content-Encoding": "br"}, 415, ""},
	}
	for _, tc := range cases {
		ran = false
		w := do(r, http.MethodPost, tc.path, strings.NewReader(tc.body), tc.hdr)
		if w.Code != tc.status || ran {
			t.Fatalf("%s: status = %d ran = %v (%s)", tc.name, w.Code, ran, w.Body.String())
		}
		b := errorBody(t, w)
		if tc.field != "" && (b.Message != validation.InvalidDataMessage || b.Errors[tc.field] == "") {
			t.Fatalf("%s: unexpected body %+v", tc.name, b)
		}
		if tc.field == "" && b.Message != MessageBadRequestBody {
			t.Fatalf("%s: unexpected body %+v", tc.name, b)
		}
	}

	w = do(r, http.MethodPost, "/loose", strings.NewReader(`{"name":"ok","color":"red"}`), jsonHdr())
	if w.Code != 200 {
		t.Fatalf("non-strict mount should drop unknown fields: %d %s", w.Code, w.Body.String())
	}
}

func TestValidateQuery(t *testing.T) {
	v := validation.New()
	r := newEngine(false)
	r.GET("/items/:id", ValidObjectID(), ValidateQuery[listQuery](v, AllowUnknown), func(c *gin.Context) {
		q := Query[listQuery](c)
		c.JSON(http.StatusOK, gin.H{"page": q.Page, "limit": q.Limit, "id": c.Param("id")})
	})

	w := do(r, http.MethodGet, "/items/65f0c0ffee0000000000abcd?page=2&limit=5&sort=asc", nil, nil)
	if w.Code != 200 || w.Body.String() != `{"id":"65f0c0ffee0000000000abcd","limit":5,"page":2}` {
		t.Fatalf("unexpected: %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/items/65f0c0ffee0000000000abcd?page=0&limit=x", nil, nil)
	b := errorBody(t, w)
	if w.Code != 400 || len(b.Errors) != 2 {
		t.Fatalf("expected two query violations: %d %+v", w.Code, b)
	}

	w = do(r, http.MethodGet, "/items/nope", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("malformed id expected 404, got %d", w.Code)
	}
}

func TestValidatedAccessorsWithoutMount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(nil)
	if Body[tagBody](c) != nil || Query[listQuery](c) != nil {
		t.Fatalf("expected nil without a validator mount")
	}
}

func TestValidObjectID(t *testing.T) {
	r := newEngine(false)
	var ran bool
	r.GET("/cases/:id/history/:hid", ValidObjectID("id", "hid"), func(c *gin.Context) {
		ran = true
		ok(c)
	})

	w := do(r, http.MethodGet, "/cases/65f0c0ffee0000000000abcd/history/65F0C0FFEE0000000000ABCD", nil, nil)
	if w.Code != 200 || !ran {
		t.Fatalf("valid ids rejected: %d", w.Code)
	}
	for _, p := range []string{
		"/cases/123/history/65f0c0ffee0000000000abcd",
		"/cases/65f0c0ffee0000000000abcd/history/65f0c0ffee0000000000abcz",
		"/cases/65f0c0ffee0000000000abcd0/history/65f0c0ffee0000000000abcd",
	} {
		ran = false
		w := do(r, http.MethodGet, p, nil, nil)
		if b := errorBody(t, w); w.Code != 404 || b.Message != "Not Found" || ran {
			t.Fatalf("%s: %d %+v ran=%v", p, w.Code, b, ran)
		}
	}
}
