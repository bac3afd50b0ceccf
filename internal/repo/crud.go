// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the generic CRUD helpers shared by every
// entity.
//
// All functions are context-aware and accept a *gorm.DB handle, so they work
// inside transactions as well. They follow the "thin repository" approach:
// no business logic, only persistence and query composition.
//
// Error semantics:
//   - A missing (or soft-deleted) row yields ErrNotFound.
//   - A unique-constraint violation on insert yields ErrDuplicate.
//   - Any other database error is propagated unchanged.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-constraint violation on insert.
var ErrDuplicate = errors.New("duplicate")

// Create inserts v.
func Create[T any](ctx context.Context, db *gorm.DB, v *T) error {
	if err := db.WithContext(ctx).Create(v).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Get loads the live row with primary key id. preload names associations to
// load alongside it.
func Get[T any](ctx context.Context, db *gorm.DB, id string, preload ...string) (*T, error) {
	q := db.WithContext(ctx)
	for _, p := range preload {
		q = q.Preload(p)
	}
	var out T
	if err := q.Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// Exists reports whether a live row with primary key id exists.
func Exists[T any](ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// Page returns one page of live rows, newest first, and the live row total.
func Page[T any](ctx context.Context, db *gorm.DB, offset, limit int) ([]T, int64, error) {
	var total int64
	if err := db.WithContext(ctx).Model(new(T)).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := make([]T, 0)
	if total == 0 {
		return out, 0, nil
	}
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}

// Raw returns every row including soft-deleted ones, most recently deleted
// first.
func Raw[T any](ctx context.Context, db *gorm.DB) ([]T, error) {
	out := make([]T, 0)
	err := db.WithContext(ctx).
		Unscoped().
		Order("deleted_at IS NULL, deleted_at desc").
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// Update loads the live row id, applies mutate and saves every column.
// Returns ErrNotFound when no live row matched.
func Update[T any](ctx context.Context, db *gorm.DB, id string, mutate func(*T)) (*T, error) {
	row, err := Get[T](ctx, db, id)
	if err != nil {
		return nil, err
	}
	mutate(row)
	if err := db.WithContext(ctx).Save(row).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return row, nil
}

// Delete soft-deletes the live row id. Returns ErrNotFound when no live row
// matched.
func Delete[T any](ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicate recognises unique violations whether or not the dialector's
// error translation is enabled.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
