// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/rescue-api/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
// ":memory:" and "file:" DSNs are passed through untouched.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if !isDSN(path) {
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, err
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

func isDSN(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file:")
}

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.UserValidation{},
		&domain.NGO{},
		&domain.Case{},
		&domain.CaseHistory{},
		&domain.Tag{},
		&domain.Upload{},
		&domain.Idempotency{},
	}
}

// AutoMigrate creates or updates the schema for Models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
