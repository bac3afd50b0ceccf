package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123"

// withSecret sets the only required variable.
func withSecret(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
}

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	withSecret(t)
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	withSecret(t)
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("API_BASE_PATH default expected '/api/v1', got %q", cfg.APIBasePath)
	}
}

// --- Load success + normalization + parsing ---

func TestLoad_Defaults(t *testing.T) {
	withSecret(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AppEnv != EnvProduction || cfg.Development() {
		t.Fatalf("app env default unexpected: %q", cfg.AppEnv)
	}
	if cfg.RequestTimeout != 15*time.Second || cfg.BodyLimit != 1<<20 {
		t.Fatalf("request limits unexpected: %v %d", cfg.RequestTimeout, cfg.BodyLimit)
	}
	want := AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour, CookieName: "Authorization", OTPTTL: 15 * time.Minute, BcryptCost: 10}
	if cfg.Auth != want {
		t.Fatalf("auth = %+v", cfg.Auth)
	}
	if cfg.Upload.Backend != "fs" || cfg.Upload.Dir != "uploads" || cfg.Upload.MaxBytes != 2<<20 {
		t.Fatalf("upload = %+v", cfg.Upload)
	}
	if cfg.Geo != (GeoConfig{DefaultLon: 72.877, DefaultLat: 19.076, MaxDistanceKM: 8}) {
		t.Fatalf("geo = %+v", cfg.Geo)
	}
	if cfg.OTEL.ServiceName != "rescue-api" {
		t.Fatalf("otel service = %q", cfg.OTEL.ServiceName)
	}
}

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	withSecret(t)
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"
	t.Setenv("APP_ENV", "dev")    // will normalize to "development"
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("BODY_LIMIT", "2048")

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v2/") // no leading slash + trailing slash -> "/api/v2"

	// App
	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("AUTH_COOKIE_NAME", "sid")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("UPLOAD_BACKEND", "MINIO")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("MINIO_ACCESS_KEY", "ak")
	t.Setenv("MINIO_SECRET_KEY", "sk")
	t.Setenv("MINIO_BUCKET", "media")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("UPLOAD_MAX_BYTES", "4096")
	t.Setenv("GEO_DEFAULT_LON", "77.59")
	t.Setenv("GEO_DEFAULT_LAT", "12.97")
	t.Setenv("GEO_MAX_DISTANCE_KM", "12.5")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// Idempotency
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" ||
		cfg.RequestTimeout != 5*time.Second ||
		cfg.BodyLimit != 2048 {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if !cfg.Development() {
		t.Fatalf("APP_ENV=dev should normalize to development, got %q", cfg.AppEnv)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v2" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// App
	if cfg.DBPath != "db.sqlite" {
		t.Fatalf("db path unexpected: %q", cfg.DBPath)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour || cfg.Auth.CookieName != "sid" || cfg.Auth.OTPTTL != 5*time.Minute || cfg.Auth.BcryptCost != 12 {
		t.Fatalf("auth unexpected: %+v", cfg.Auth)
	}
	wantMinio := MinioConfig{Endpoint: "minio:9000", AccessKey: "ak", SecretKey: "sk", Bucket: "media", UseSSL: true}
	if cfg.Upload.Backend != "minio" || cfg.Upload.MaxBytes != 4096 || cfg.Upload.Minio != wantMinio {
		t.Fatalf("upload unexpected: %+v", cfg.Upload)
	}
	if cfg.Geo.DefaultLon != 77.59 || cfg.Geo.DefaultLat != 12.97 || cfg.Geo.MaxDistanceKM != 12.5 {
		t.Fatalf("geo unexpected: %+v", cfg.Geo)
	}

	// Rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// Idempotency
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"invalid LOG_LEVEL", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"empty PORT via spaces", map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{"non-positive timeouts", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"max header bytes <= 0", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"empty DB_PATH", map[string]string{"DB_PATH": "   "}, "DB_PATH must not be empty"},
		{"unknown APP_ENV", map[string]string{"APP_ENV": "staging"}, "APP_ENV"},
		{"request timeout non-positive", map[string]string{"REQUEST_TIMEOUT": "0s"}, "REQUEST_TIMEOUT"},
		{"body limit non-positive", map[string]string{"BODY_LIMIT": "0"}, "BODY_LIMIT"},
		{"missing JWT_SECRET", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"short JWT_SECRET", map[string]string{"JWT_SECRET": "short"}, "JWT_SECRET"},
		{"token ttl non-positive", map[string]string{"TOKEN_TTL": "-1m"}, "TOKEN_TTL"},
		{"bcrypt cost out of range", map[string]string{"BCRYPT_COST": "3"}, "BCRYPT_COST"},
		{"unknown UPLOAD_BACKEND", map[string]string{"UPLOAD_BACKEND": "ftp"}, "UPLOAD_BACKEND"},
		{"minio without credentials", map[string]string{"UPLOAD_BACKEND": "minio", "MINIO_ENDPOINT": "minio:9000"}, "MINIO_"},
		{"upload max bytes non-positive", map[string]string{"UPLOAD_MAX_BYTES": "0"}, "UPLOAD_MAX_BYTES"},
		{"geo latitude out of range", map[string]string{"GEO_DEFAULT_LAT": "95"}, "GEO_DEFAULT"},
		{"geo radius non-positive", map[string]string{"GEO_MAX_DISTANCE_KM": "0"}, "GEO_MAX_DISTANCE_KM"},
		{"rate rps negative", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"rate burst < 1", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"hsts max age negative", map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{"idempotency ttl non-positive", map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{"otel sample ratio out of range", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			withSecret(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); !containsErr(err, tc.want) {
				t.Fatalf("expected %s validation error, got: %v", tc.want, err)
			}
		})
	}
}

// --- helpers ---

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_numbersAndDurations(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}

	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}

	t.Setenv("I64_VALID", "5368709120")
	if getint64("I64_VALID", 0) != 5<<30 {
		t.Fatalf("getint64 parse failed")
	}
	t.Setenv("I64_BAD", "1.5")
	if getint64("I64_BAD", 9) != 9 {
		t.Fatalf("getint64 default on bad parse failed")
	}

	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	trueVals := []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"}
	for i, v := range trueVals {
		k := "B_T_" + letter(i)
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	falseVals := []string{"0", "false", "FALSE", " no ", "N", "off", "Off"}
	for i, v := range falseVals {
		k := "B_F_" + letter(i)
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	// default on unset/empty
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	in := " a, ,b ,  c  ,"
	want := []string{"a", "b", "c"}
	if got := splitCSV(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("splitCSV mismatch: got %#v want %#v", got, want)
	}

	if normalizeBasePath("") != "/" {
		t.Fatalf("normalizeBasePath empty -> '/' failed")
	}
	if normalizeBasePath("v1") != "/v1" {
		t.Fatalf("normalizeBasePath missing leading slash failed")
	}
	if normalizeBasePath("/v1/") != "/v1" {
		t.Fatalf("normalizeBasePath trailing slash trim failed")
	}
	if normalizeBasePath(" / ") != "/" {
		t.Fatalf("normalizeBasePath whitespace failed")
	}
}

func letter(i int) string { return string('a' + rune(i)) }

// Ensure tests don't inherit deployment env.
func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "JWT_SECRET", "APP_ENV", "UPLOAD_BACKEND"} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}

// containsErr reports whether err's message contains the given substring.
func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}
