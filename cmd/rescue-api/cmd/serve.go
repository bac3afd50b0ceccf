package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/rescue-api/internal/auth"
	"github.com/tbourn/rescue-api/internal/config"
	httpapi "github.com/tbourn/rescue-api/internal/http"
	"github.com/tbourn/rescue-api/internal/notify"
	"github.com/tbourn/rescue-api/internal/observability"
	"github.com/tbourn/rescue-api/internal/storage"
	"github.com/tbourn/rescue-api/internal/sysutil"
)

const shutdownTimeout = 15 * time.Second

var addr string

// serveCmd starts the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server. The database is migrated on start, and
SIGINT or SIGTERM drain in-flight requests before exiting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().StringVar(&addr, "addr", "", "listen address (default \":$PORT\")")
	}
}

func runServe(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, observability.Build{
		Version:     buildVersion,
		Environment: cfg.AppEnv,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := observability.InstrumentDB(db, cfg.OTEL); err != nil {
		return fmt.Errorf("instrument db: %w", err)
	}

	store, err := storage.New(ctx, storageConfig(cfg.Upload))
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	notifier := notify.NewAsync(notify.LogNotifier{}, 0)
	defer notifier.Wait()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		Tokens:   auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Store:    store,
		Notifier: notifier,
	}, cfg)

	srv := &http.Server{
		Addr:              sysutil.FirstNonEmpty(addr, net.JoinHostPort("", cfg.Port)),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("env", cfg.AppEnv).
			Str("version", buildVersion).
			Msg("http server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func storageConfig(u config.UploadConfig) storage.Config {
	return storage.Config{
		Backend:   u.Backend,
		Dir:       u.Dir,
		PublicURL: u.PublicURL,
		Minio: storage.MinioConfig{
			Endpoint:  u.Minio.Endpoint,
			AccessKey: u.Minio.AccessKey,
			SecretKey: u.Minio.SecretKey,
			Bucket:    u.Minio.Bucket,
			UseSSL:    u.Minio.UseSSL,
		},
	}
}
