package httpapi

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/rescue-api/internal/auth"
	"github.com/tbourn/rescue-api/internal/config"
	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/notify"
	"github.com/tbourn/rescue-api/internal/repo"
	"github.com/tbourn/rescue-api/internal/storage"
)

const testSecret = "router-test-secret-0123456789"

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (r *recordingNotifier) Send(_ context.Context, m notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return nil
}

func (r *recordingNotifier) last() notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return notify.Message{}
	}
	return r.sent[len(r.sent)-1]
}

func testConfig() config.Config {
	return config.Config{
		AppEnv:         config.EnvTest,
		APIBasePath:    "/api/v1",
		RequestTimeout: 5 * time.Second,
		BodyLimit:      1 << 20,
		RateRPS:        100,
		RateBurst:      100,
		IdempotencyTTL: time.Hour,
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
		Auth: config.AuthConfig{
			JWTSecret:  testSecret,
			TokenTTL:   time.Hour,
			CookieName: "Authorization",
			OTPTTL:     time.Minute,
			BcryptCost: 4,
		},
		Upload: config.UploadConfig{
			Backend:   storage.BackendMemory,
			PublicURL: "/uploads/files",
			MaxBytes:  1 << 20,
		},
		Geo: config.GeoConfig{DefaultLon: 72.877, DefaultLat: 19.076, MaxDistanceKM: 50},
	}
}

type testEnv struct {
	r      *gin.Engine
	db     *gorm.DB
	tokens *auth.Issuer
	store  storage.Store
	notes  *recordingNotifier
}

func newEnv(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := &testEnv{
		r:      gin.New(),
		db:     newTestDB(t),
		tokens: auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		store:  storage.NewMemoryStore(cfg.Upload.PublicURL),
		notes:  &recordingNotifier{},
	}
	RegisterRoutes(env.r, Deps{DB: env.db, Tokens: env.tokens, Store: env.store, Notifier: env.notes}, cfg)
	return env
}

func (e *testEnv) bearer(t *testing.T, id string, roles ...string) string {
	t.Helper()
	tok, _, err := e.tokens.Issue(id, roles)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + tok
}

func (e *testEnv) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type errorBody struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	e := newEnv(t, testConfig())

	// /health works at the root and under the base path
	for _, p := range []string{"/health", "/api/v1/health"} {
		w := e.do(http.MethodGet, p, "", map[string]string{"Origin": "http://example.com"})
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", p, w.Code)
		}
		// CORS (AllowAllOrigins) → header "*"
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("AllowAllOrigins expected '*', got %q", got)
		}
	}

	// /metrics is wired
	w := e.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// unknown route → 404 error body
	w = e.do(http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("NoRoute expected 404, got %d", w.Code)
	}
	if eb := decode[errorBody](t, w); eb.Status != http.StatusNotFound || eb.Message != "Not Found" {
		t.Fatalf("unexpected 404 body: %+v", eb)
	}

	// wrong method on a known path → 405
	w = e.do(http.MethodPatch, "/api/v1/tags", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("NoMethod expected 405, got %d", w.Code)
	}

	// security headers on every response
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing: %v", w.Header())
	}
}

func TestRegisterRoutes_CORSAllowlist(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"https://app.example.org"}}
	e := newEnv(t, cfg)

	w := e.do(http.MethodGet, "/health", "", map[string]string{"Origin": "https://app.example.org"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.org" {
		t.Fatalf("allowlisted origin not echoed, got %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("credentials must be allowed for listed origins")
	}

	w = e.do(http.MethodGet, "/health", "", map[string]string{"Origin": "https://evil.example"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("unlisted origin expected 403, got %d", w.Code)
	}
}

func TestRegisterRoutes_BearerGate(t *testing.T) {
	e := newEnv(t, testConfig())

	w := e.do(http.MethodGet, "/api/v1/cases", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token expected 401, got %d", w.Code)
	}

	w = e.do(http.MethodGet, "/api/v1/cases", "", map[string]string{"Authorization": "Bearer garbage"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token expected 401, got %d", w.Code)
	}

	// role gate: raw listing is ADMIN only
	w = e.do(http.MethodGet, "/api/v1/users/raw", "", map[string]string{"Authorization": e.bearer(t, domain.NewObjectID(), domain.RoleUser)})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("non-admin expected 401, got %d", w.Code)
	}
	w = e.do(http.MethodGet, "/api/v1/users/raw", "", map[string]string{"Authorization": e.bearer(t, domain.NewObjectID(), domain.RoleAdmin)})
	if w.Code != http.StatusOK {
		t.Fatalf("admin expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_IDGuardAndValidator(t *testing.T) {
	e := newEnv(t, testConfig())
	authz := map[string]string{"Authorization": e.bearer(t, domain.NewObjectID(), domain.RoleUser)}

	w := e.do(http.MethodGet, "/api/v1/cases/not-an-id", "", authz)
	if w.Code != http.StatusNotFound {
		t.Fatalf("malformed id expected 404, got %d", w.Code)
	}

	w = e.do(http.MethodPost, "/api/v1/tags", `{"name":"x","extra":1}`, authz)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid body expected 400, got %d", w.Code)
	}
	eb := decode[errorBody](t, w)
	if eb.Errors["extra"] == "" || eb.Errors["name"] == "" {
		t.Fatalf("expected field errors for name and extra, got %+v", eb.Errors)
	}
}

func TestRegisterRoutes_SignupVerifyLoginMe(t *testing.T) {
	e := newEnv(t, testConfig())

	w := e.do(http.MethodPost, "/api/v1/auth/signup", `{"email":"Jane@Example.com","password":"s3cret-pass"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup = %d: %s", w.Code, w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("auth routes must not be cached, got %q", cc)
	}

	otp := e.notes.last().Data["otp"]
	if len(otp) != 6 {
		t.Fatalf("expected an OTP notification, got %+v", e.notes.last())
	}

	w = e.do(http.MethodPost, "/api/v1/auth/verify", `{"email":"jane@example.com","otp":"`+otp+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify = %d: %s", w.Code, w.Body.String())
	}

	w = e.do(http.MethodPost, "/api/v1/auth/login", `{"email":"jane@example.com","password":"s3cret-pass"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", w.Code, w.Body.String())
	}
	var session *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "Authorization" {
			session = ck
		}
	}
	if session == nil || session.Value == "" || !session.HttpOnly {
		t.Fatalf("session cookie not set: %v", w.Result().Cookies())
	}

	w = e.do(http.MethodGet, "/api/v1/auth/me", "", map[string]string{"Cookie": session.Name + "=" + session.Value})
	if w.Code != http.StatusOK {
		t.Fatalf("me = %d: %s", w.Code, w.Body.String())
	}
	env := decode[envelope](t, w)
	var u domain.User
	if err := json.Unmarshal(env.Data, &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if u.Email != "jane@example.com" || u.Status != domain.UserActivated {
		t.Fatalf("unexpected principal: %+v", u)
	}

	// no session cookie: the token is reported missing
	w = e.do(http.MethodGet, "/api/v1/auth/me", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("me without cookie expected 404, got %d", w.Code)
	}
}

func TestRegisterRoutes_CreateCaseIdempotentReplay(t *testing.T) {
	e := newEnv(t, testConfig())
	ngo := &domain.NGO{Name: "mumbai", PhoneNumber: "9876543210", Point: &domain.Point{Type: "Point", Coordinates: []float64{72.877, 19.076}}}
	if err := e.db.Create(ngo).Error; err != nil {
		t.Fatalf("seed ngo: %v", err)
	}

	hdr := map[string]string{
		"Authorization":   e.bearer(t, domain.NewObjectID(), domain.RoleUser),
		"Idempotency-Key": "case-123",
	}
	payload := `{"animalDetails":{"type":"DOG"},"phoneNumber":"9876543210","point":{"type":"Point","coordinates":[72.88,19.08]}}`

	w := e.do(http.MethodPost, "/api/v1/cases", payload, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", w.Code, w.Body.String())
	}
	var first domain.Case
	_ = json.Unmarshal(decode[envelope](t, w).Data, &first)
	if first.AssignedNGO != ngo.ID {
		t.Fatalf("case not assigned to the seeded NGO: %+v", first)
	}

	w = e.do(http.MethodPost, "/api/v1/cases", payload, hdr)
	if w.Code != http.StatusCreated {
		t.Fatalf("replay = %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotent-Replay") != "true" {
		t.Fatal("replay header missing")
	}
	var second domain.Case
	_ = json.Unmarshal(decode[envelope](t, w).Data, &second)
	if second.ID != first.ID {
		t.Fatalf("replay created a new case: %s vs %s", second.ID, first.ID)
	}

	var n int64
	e.db.Model(&domain.Case{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected one case, got %d", n)
	}
}

func TestRegisterRoutes_GzipErrorBodies(t *testing.T) {
	e := newEnv(t, testConfig())
	hdr := map[string]string{"Accept-Encoding": "gzip"}

	cases := []struct {
		path   string
		status int
	}{
		{"/api/v1/users", http.StatusUnauthorized},
		{"/api/v1/tags/abc", http.StatusNotFound},
		{"/nope", http.StatusNotFound},
		{"/api/v1/ngos?longitude=NaN", http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := e.do(http.MethodGet, tc.path, "", hdr)
		if w.Code != tc.status {
			t.Fatalf("GET %s = %d, want %d", tc.path, w.Code, tc.status)
		}
		if ce := w.Header().Get("Content-Encoding"); ce != "gzip" {
			t.Fatalf("GET %s: Content-Encoding = %q", tc.path, ce)
		}
		zr, err := gzip.NewReader(w.Body)
		if err != nil {
			t.Fatalf("GET %s: gzip reader: %v", tc.path, err)
		}
		plain, err := io.ReadAll(zr)
		if err != nil {
			t.Fatalf("GET %s: inflate: %v", tc.path, err)
		}
		var eb errorBody
		if err := json.Unmarshal(plain, &eb); err != nil {
			t.Fatalf("GET %s: decode %q: %v", tc.path, plain, err)
		}
		if eb.Status != tc.status || eb.Message == "" {
			t.Fatalf("GET %s: unexpected body %+v", tc.path, eb)
		}
	}
}

func TestRegisterRoutes_NonFiniteQueryNumbers(t *testing.T) {
	e := newEnv(t, testConfig())

	for _, q := range []string{"longitude=NaN", "maxDistance=Inf", "latitude=-Infinity"} {
		w := e.do(http.MethodGet, "/api/v1/ngos?"+q, "", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("GET ?%s = %d: %s", q, w.Code, w.Body.String())
		}
		eb := decode[errorBody](t, w)
		field := q[:strings.IndexByte(q, '=')]
		if eb.Message != "Invalid data" || eb.Errors[field] != fmt.Sprintf("%q must be a number", field) {
			t.Fatalf("GET ?%s: unexpected body %+v", q, eb)
		}
	}

	w := e.do(http.MethodGet, "/api/v1/ngos?maxDistance=0", "", nil)
	if eb := decode[errorBody](t, w); w.Code != http.StatusBadRequest || eb.Errors["maxDistance"] != `"maxDistance" must be greater than 0` {
		t.Fatalf("maxDistance=0: %d %+v", w.Code, eb)
	}
}

func TestRegisterRoutes_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	e := newEnv(t, cfg)

	if w := e.do(http.MethodGet, "/api/v1/", "", nil); w.Code != http.StatusOK {
		t.Fatalf("first call = %d: %s", w.Code, w.Body.String())
	}
	w := e.do(http.MethodGet, "/api/v1/", "", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second call expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}

	// health is not rate limited
	if w := e.do(http.MethodGet, "/api/v1/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}
}

func TestRegisterRoutes_ServesStoredBlobs(t *testing.T) {
	e := newEnv(t, testConfig())
	if _, err := e.store.Put(context.Background(), "avatars/a.png", strings.NewReader("png-bytes"), 9, "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}

	w := e.do(http.MethodGet, "/uploads/files/avatars/a.png", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "png-bytes" {
		t.Fatalf("blob = %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}

	if w := e.do(http.MethodGet, "/uploads/files/avatars/missing.png", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing blob expected 404, got %d", w.Code)
	}
}

func TestGroupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	groupWithPrefix(r, "/").GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	groupWithPrefix(r, "/v2").GET("/y", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, p := range []string{"/x", "/v2/y"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("GET %s = %d", p, w.Code)
		}
	}
}
