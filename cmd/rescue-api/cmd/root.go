// Package cmd holds the rescue-api command tree.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/rescue-api/internal/config"
	"github.com/tbourn/rescue-api/internal/repo"
	"github.com/tbourn/rescue-api/internal/sysutil"
)

var (
	buildVersion = "dev"
	envFile      string
)

// rootCmd runs the server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "rescue-api",
	Short: "Animal rescue REST API",
	Long: `rescue-api serves the REST API of an animal-rescue NGO.

Configuration is read from the environment, optionally seeded from a .env
file. Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(version string) {
	buildVersion = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
}

// loadConfig loads the dotenv file (when present), reads the configuration
// and configures the global logger.
func loadConfig() (config.Config, error) {
	envErr := godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Str("file", envFile).Msg("dotenv not loaded, using process environment")
	}
	return cfg, nil
}

// openDB opens the SQLite database and applies migrations.
func openDB(_ context.Context, cfg config.Config) (*gorm.DB, error) {
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db %q: %w", cfg.DBPath, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
