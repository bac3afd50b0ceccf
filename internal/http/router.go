// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, error rendering, panic
// recovery, metrics, CORS, security headers, idempotency, and rate limiting.
//
// Global chain, outermost first:
//
//	otelgin → RequestID → Logger → Metrics → gzip → ErrorHandler →
//	Recovery → Timeout → BodyLimit → CORS → SecurityHeaders
//
// Per route:
//
//	[auth gate] → [idempotency] → rate limiter → [id guard] → [validator] → handler
//
// The rate limiter and idempotency run after the gate so authenticated
// callers are keyed by user id; public routes are keyed by client IP.
package httpapi

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/rescue-api/internal/apperror"
	"github.com/tbourn/rescue-api/internal/auth"
	"github.com/tbourn/rescue-api/internal/config"
	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/http/handlers"
	"github.com/tbourn/rescue-api/internal/http/middleware"
	"github.com/tbourn/rescue-api/internal/notify"
	"github.com/tbourn/rescue-api/internal/repo"
	"github.com/tbourn/rescue-api/internal/search"
	"github.com/tbourn/rescue-api/internal/services"
	"github.com/tbourn/rescue-api/internal/storage"
	"github.com/tbourn/rescue-api/internal/validation"
)

// Deps are the long-lived collaborators RegisterRoutes builds services from.
type Deps struct {
	DB       *gorm.DB
	Tokens   *auth.Issuer
	Store    storage.Store
	Notifier notify.Notifier
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the versioned API under cfg.APIBasePath.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// Global chain.
	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.Logger(middleware.NewRedactor(middleware.RedactOptions{})),
		middleware.Metrics(),
		// gzip closes its writer on return, so error bodies are rendered inside it.
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
		middleware.ErrorHandler(middleware.ErrorOptions{Development: cfg.Development()}),
		middleware.Recovery(),
		middleware.Timeout(cfg.RequestTimeout),
		middleware.BodyLimit(cfg.BodyLimit),
		corsMiddleware(cfg.CORS),
		middleware.SecurityHeaders(middleware.SecurityOptions{
			EnableHSTS:   cfg.Security.EnableHSTS,
			HSTSMaxAge:   cfg.Security.HSTSMaxAge,
			EnablePolicy: true,
		}),
	)

	r.NoRoute(middleware.NotFound())
	r.NoMethod(middleware.MethodNotAllowed())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	svc := buildServices(deps, cfg)
	h := handlers.New(svc, handlers.Options{
		CookieName:     cfg.Auth.CookieName,
		SecureCookie:   !cfg.Development(),
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})

	v := validation.New()
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	limit := rl.Handler()
	guard := middleware.ValidObjectID()
	list := middleware.ValidateQuery[handlers.ListQuery](v, middleware.Strict)

	bearer := middleware.RequireBearer(deps.Tokens)
	admin := middleware.RequireBearer(deps.Tokens, domain.RoleAdmin)
	session := middleware.RequireSession(deps.Tokens, cfg.Auth.CookieName, sessionLookup(svc.Auth))
	idem := middleware.Idempotency(
		middleware.IdempotencyOptions{Scope: services.IdempotencyScopeCases},
		idempotencyLookup(deps.DB),
	)

	api := groupWithPrefix(r, cfg.APIBasePath)

	// Home
	api.GET("/", limit, handlers.Handle(h.Home))
	api.GET("/health", handlers.Handle(h.Health))
	if cfg.APIBasePath != "/" {
		r.GET("/health", handlers.Handle(h.Health))
	}

	// Auth
	noStore := middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true})
	ag := api.Group("/auth", noStore)
	{
		ag.POST("/signup", limit, body[handlers.SignupRequest](v), handlers.Handle(h.Signup))
		ag.POST("/verify", limit, body[handlers.VerifyRequest](v), handlers.Handle(h.Verify))
		ag.POST("/login", limit, body[handlers.LoginRequest](v), handlers.Handle(h.Login))
		ag.POST("/logout", session, limit, handlers.Handle(h.Logout))
		ag.GET("/me", session, limit, handlers.Handle(h.Me))
	}

	// Users
	ug := api.Group("/users")
	{
		ug.GET("", bearer, limit, list, handlers.Handle(h.ListUsers))
		ug.GET("/raw", admin, limit, handlers.Handle(h.RawUsers))
		ug.GET("/:id", bearer, limit, guard, handlers.Handle(h.GetUser))
		ug.POST("", admin, limit, body[handlers.CreateUserRequest](v), handlers.Handle(h.CreateUser))
		ug.PUT("/:id", bearer, limit, guard, body[handlers.UpdateUserRequest](v), handlers.Handle(h.UpdateUser))
		ug.DELETE("/:id", admin, limit, guard, handlers.Handle(h.DeleteUser))
	}

	// NGOs
	ng := api.Group("/ngos")
	{
		ng.GET("", limit, middleware.ValidateQuery[handlers.NearQuery](v, middleware.Strict), handlers.Handle(h.NearNGOs))
		ng.GET("/raw", admin, limit, handlers.Handle(h.RawNGOs))
		ng.GET("/:id", limit, guard, handlers.Handle(h.GetNGO))
		ng.POST("", bearer, limit, body[handlers.CreateNGORequest](v), handlers.Handle(h.CreateNGO))
		ng.PUT("/:id", bearer, limit, guard, body[handlers.UpdateNGORequest](v), handlers.Handle(h.UpdateNGO))
		ng.PUT("/:id/verify", admin, limit, guard, handlers.Handle(h.VerifyNGO))
		ng.DELETE("/:id", bearer, limit, guard, handlers.Handle(h.DeleteNGO))
	}

	// Cases
	cg := api.Group("/cases")
	{
		cg.GET("", bearer, limit, list, handlers.Handle(h.ListCases))
		cg.GET("/raw", admin, limit, handlers.Handle(h.RawCases))
		cg.GET("/:id", bearer, limit, guard, handlers.Handle(h.GetCase))
		cg.POST("", bearer, idem, limit, body[handlers.CreateCaseRequest](v), handlers.Handle(h.CreateCase))
		cg.PUT("/:id", bearer, limit, guard, body[handlers.UpdateCaseRequest](v), handlers.Handle(h.UpdateCase))
		cg.DELETE("/:id", bearer, limit, guard, handlers.Handle(h.DeleteCase))
	}

	// Case history
	hg := api.Group("/case-histories")
	{
		hg.GET("/:id", bearer, limit, guard, handlers.Handle(h.GetCaseHistory))
		hg.POST("", bearer, limit, body[handlers.CreateCaseHistoryRequest](v), handlers.Handle(h.CreateCaseHistory))
		hg.PUT("/:id", bearer, limit, guard, body[handlers.UpdateCaseHistoryRequest](v), handlers.Handle(h.UpdateCaseHistory))
	}

	// Tags
	tg := api.Group("/tags")
	{
		tg.GET("", limit, list, handlers.Handle(h.ListTags))
		tg.GET("/:id", limit, guard, handlers.Handle(h.GetTag))
		tg.POST("", bearer, limit, body[handlers.TagRequest](v), handlers.Handle(h.CreateTag))
		tg.PUT("/:id", bearer, limit, guard, body[handlers.TagRequest](v), handlers.Handle(h.UpdateTag))
		tg.DELETE("/:id", bearer, limit, guard, handlers.Handle(h.DeleteTag))
	}

	// Uploads
	upg := api.Group("/uploads")
	{
		upg.POST("/avatar", bearer, limit, handlers.Handle(h.UploadAvatar))
		upg.GET("/:id", limit, guard, handlers.Handle(h.GetUpload))
		upg.PUT("/:id", bearer, limit, guard, body[handlers.UpdateUploadRequest](v), handlers.Handle(h.UpdateUpload))
	}

	// Local blobs are served from the public URL prefix when it is a path on
	// this server. MinIO objects are fetched from the bucket directly.
	if p := cfg.Upload.PublicURL; strings.HasPrefix(p, "/") && cfg.Upload.Backend != storage.BackendMinio {
		r.GET(strings.TrimRight(p, "/")+"/*key", limit, serveBlob(deps.Store))
	}
}

// buildServices constructs the application services from deps and cfg.
func buildServices(deps Deps, cfg config.Config) handlers.Services {
	db := deps.DB

	authSvc := services.NewAuthService(db, deps.Tokens, deps.Notifier)
	authSvc.BcryptCost = cfg.Auth.BcryptCost
	authSvc.OTPTTL = cfg.Auth.OTPTTL

	userSvc := services.NewUserService(db)
	userSvc.BcryptCost = cfg.Auth.BcryptCost

	ngoSvc := services.NewNGOService(db)
	ngoSvc.DefaultOrigin = search.Origin{Lon: cfg.Geo.DefaultLon, Lat: cfg.Geo.DefaultLat}
	ngoSvc.MaxDistanceKM = cfg.Geo.MaxDistanceKM

	caseSvc := services.NewCaseService(db)
	caseSvc.IdempotencyTTL = cfg.IdempotencyTTL

	return handlers.Services{
		Auth:        authSvc,
		Users:       userSvc,
		NGOs:        ngoSvc,
		Cases:       caseSvc,
		CaseHistory: &services.CaseHistoryService{DB: db},
		Tags:        &services.TagService{DB: db},
		Uploads:     &services.UploadService{DB: db, Store: deps.Store, MaxBytes: cfg.Upload.MaxBytes},
		Stats: func(ctx context.Context) (repo.Summary, error) {
			return repo.Summarize(ctx, db)
		},
	}
}

func body[T any](v *validation.Validator) gin.HandlerFunc {
	return middleware.ValidateBody[T](v, middleware.Strict)
}

// sessionLookup resolves the stored user behind a session token so the
// identity carries the user's current roles.
func sessionLookup(a handlers.AuthService) middleware.SessionLookup {
	return func(ctx context.Context, id string) (auth.Identity, error) {
		u, err := a.Principal(ctx, id)
		if errors.Is(err, services.ErrUserNotFound) {
			return auth.Identity{}, middleware.ErrNoPrincipal
		}
		if err != nil {
			return auth.Identity{}, err
		}
		return auth.Identity{ID: u.ID, Roles: u.Roles}, nil
	}
}

// idempotencyLookup reports the case created earlier under the same key.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, userID, scope, key string, now time.Time) (string, bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		return rec.ResourceID, true, nil
	}
}

// serveBlob streams a stored object. Unknown keys fall through to the
// NotFound error body.
func serveBlob(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		rc, err := store.Get(c.Request.Context(), key)
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			middleware.Abort(c, apperror.NotFound())
			return
		}
		if err != nil {
			middleware.Abort(c, err)
			return
		}
		defer rc.Close()

		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		c.Header("Cache-Control", "public, max-age=86400")
		c.Status(http.StatusOK)
		c.Header("Content-Type", ct)
		if _, err := io.Copy(c.Writer, rc); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("key", key).Msg("blob stream interrupted")
		}
	}
}

// corsMiddleware allows every origin without credentials when no allowlist
// is configured, otherwise only the listed origins with credentials so the
// session cookie can cross origins.
func corsMiddleware(cc config.CORSConfig) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(cc.AllowedOrigins) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = cc.AllowedOrigins
		conf.AllowCredentials = true
	}
	return cors.New(conf)
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
