// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, authentication, uploads, proximity search
// defaults, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "rescue-api")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AuthConfig defines token, session and account settings.
type AuthConfig struct {
	JWTSecret  string        // JWT_SECRET, required, >= 16 bytes
	TokenTTL   time.Duration // TOKEN_TTL
	CookieName string        // AUTH_COOKIE_NAME
	OTPTTL     time.Duration // OTP_TTL
	BcryptCost int           // BCRYPT_COST in [4,31]
}

// MinioConfig defines the S3-compatible upload backend.
type MinioConfig struct {
	Endpoint  string // MINIO_ENDPOINT (host:port)
	AccessKey string // MINIO_ACCESS_KEY
	SecretKey string // MINIO_SECRET_KEY
	Bucket    string // MINIO_BUCKET
	UseSSL    bool   // MINIO_USE_SSL
}

// UploadConfig defines where uploaded media is stored.
type UploadConfig struct {
	Backend   string // UPLOAD_BACKEND: fs|memory|minio
	Dir       string // UPLOAD_DIR, fs backend root
	PublicURL string // UPLOAD_PUBLIC_URL, prefix of returned URLs
	MaxBytes  int64  // UPLOAD_MAX_BYTES, per file
	Minio     MinioConfig
}

// GeoConfig holds the defaults of NGO proximity search.
type GeoConfig struct {
	DefaultLon    float64 // GEO_DEFAULT_LON
	DefaultLat    float64 // GEO_DEFAULT_LAT
	MaxDistanceKM float64 // GEO_MAX_DISTANCE_KM
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test
	AppEnv            string        // development|production|test
	RequestTimeout    time.Duration // per-request deadline
	BodyLimit         int64         // JSON body cap in bytes

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath string // SQLite path
	Auth   AuthConfig
	Upload UploadConfig
	Geo    GeoConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// Deployment environments accepted in APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// MinSecretLen is the shortest accepted JWT_SECRET.
const MinSecretLen = 16

// Development reports whether error bodies may carry debugging detail.
func (c Config) Development() bool { return c.AppEnv == EnvDevelopment }

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		AppEnv:            strings.ToLower(getenv("APP_ENV", EnvProduction)),
		RequestTimeout:    getdur("REQUEST_TIMEOUT", 15*time.Second),
		BodyLimit:         getint64("BODY_LIMIT", 1<<20),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "rescue.db"),
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			TokenTTL:   getdur("TOKEN_TTL", time.Hour),
			CookieName: getenv("AUTH_COOKIE_NAME", "Authorization"),
			OTPTTL:     getdur("OTP_TTL", 15*time.Minute),
			BcryptCost: getint("BCRYPT_COST", 10),
		},
		Upload: UploadConfig{
			Backend:   strings.ToLower(getenv("UPLOAD_BACKEND", "fs")),
			Dir:       getenv("UPLOAD_DIR", "uploads"),
			PublicURL: getenv("UPLOAD_PUBLIC_URL", "/uploads/files"),
			MaxBytes:  getint64("UPLOAD_MAX_BYTES", 2<<20),
			Minio: MinioConfig{
				Endpoint:  getenv("MINIO_ENDPOINT", ""),
				AccessKey: getenv("MINIO_ACCESS_KEY", ""),
				SecretKey: getenv("MINIO_SECRET_KEY", ""),
				Bucket:    getenv("MINIO_BUCKET", "rescue-uploads"),
				UseSSL:    getbool("MINIO_USE_SSL", false),
			},
		},
		Geo: GeoConfig{
			DefaultLon:    getfloat("GEO_DEFAULT_LON", 72.877),
			DefaultLat:    getfloat("GEO_DEFAULT_LAT", 19.076),
			MaxDistanceKM: getfloat("GEO_MAX_DISTANCE_KM", 8),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "rescue-api"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.AppEnv == "dev" {
		cfg.AppEnv = EnvDevelopment
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	switch cfg.AppEnv {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return cfg, errors.New("APP_ENV must be one of: development, production, test")
	}
	if cfg.RequestTimeout <= 0 {
		return cfg, errors.New("REQUEST_TIMEOUT must be > 0")
	}
	if cfg.BodyLimit <= 0 {
		return cfg, errors.New("BODY_LIMIT must be > 0")
	}
	if len(cfg.Auth.JWTSecret) < MinSecretLen {
		return cfg, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretLen)
	}
	if cfg.Auth.TokenTTL <= 0 || cfg.Auth.OTPTTL <= 0 {
		return cfg, errors.New("TOKEN_TTL and OTP_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Auth.CookieName) == "" {
		return cfg, errors.New("AUTH_COOKIE_NAME must not be empty")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return cfg, errors.New("BCRYPT_COST must be in [4,31]")
	}
	switch cfg.Upload.Backend {
	case "fs":
		if strings.TrimSpace(cfg.Upload.Dir) == "" {
			return cfg, errors.New("UPLOAD_DIR must not be empty")
		}
	case "memory":
	case "minio":
		m := cfg.Upload.Minio
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.Bucket == "" {
			return cfg, errors.New("MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and MINIO_BUCKET are required for UPLOAD_BACKEND=minio")
		}
	default:
		return cfg, errors.New("UPLOAD_BACKEND must be one of: fs, memory, minio")
	}
	if cfg.Upload.MaxBytes <= 0 {
		return cfg, errors.New("UPLOAD_MAX_BYTES must be > 0")
	}
	if cfg.Geo.DefaultLon < -180 || cfg.Geo.DefaultLon > 180 || cfg.Geo.DefaultLat < -90 || cfg.Geo.DefaultLat > 90 {
		return cfg, errors.New("GEO_DEFAULT_LON/GEO_DEFAULT_LAT out of range")
	}
	if cfg.Geo.MaxDistanceKM <= 0 {
		return cfg, errors.New("GEO_MAX_DISTANCE_KM must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
