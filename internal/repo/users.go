// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the user and signup-validation queries
// that do not fit the generic helpers.
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/rescue-api/internal/domain"
)

// FindUserByEmail returns the live user with email (case-insensitive) or
// ErrNotFound.
func FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailTaken reports whether any user, soft-deleted ones included, already
// uses email.
func EmailTaken(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Unscoped().Model(&domain.User{}).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&n).Error
	return n > 0, err
}

// PendingValidation returns the newest unverified, unexpired validation for
// email or ErrNotFound.
func PendingValidation(ctx context.Context, db *gorm.DB, email string, now time.Time) (*domain.UserValidation, error) {
	var v domain.UserValidation
	err := db.WithContext(ctx).
		Where("lower(email) = ? AND verified_at IS NULL AND expires_at > ?", strings.ToLower(email), now).
		Order("created_at desc").
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CompleteValidation marks the validation verified and activates the user
// with the same email, atomically.
func CompleteValidation(ctx context.Context, db *gorm.DB, v *domain.UserValidation, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(v).Update("verified_at", now).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.User{}).
			Where("lower(email) = ?", strings.ToLower(v.Email)).
			Update("status", domain.UserActivated)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
