// Package services – UserService
//
// This file implements administrative user management: paginated listing,
// raw listing including deleted accounts, creation with explicit roles and
// status, partial updates and soft deletion.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/rescue-api/internal/auth"
	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/repo"
	"github.com/tbourn/rescue-api/internal/utils"
)

// CreateUserInput is the data for an administrator-created account.
type CreateUserInput struct {
	Email                string
	Password             string
	Roles                []string
	Status               string
	PhoneNumber          string
	AlternatePhoneNumber string
	Point                *domain.Point
}

// UserPatch holds optional user changes. Nil fields are left untouched.
type UserPatch struct {
	Password             *string
	Roles                []string
	Status               *string
	PhoneNumber          *string
	AlternatePhoneNumber *string
	Point                *domain.Point
}

// UserService manages user accounts.
type UserService struct {
	DB         *gorm.DB
	BcryptCost int
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db, BcryptCost: 10}
}

// ListPage returns one page of live users, newest first.
func (s *UserService) ListPage(ctx context.Context, page, limit int) ([]domain.User, int64, error) {
	_, limit, offset := utils.Clamp(page, limit)
	return repo.Page[domain.User](ctx, s.DB, offset, limit)
}

// Raw returns every user, deleted ones included.
func (s *UserService) Raw(ctx context.Context) ([]domain.User, error) {
	return repo.Raw[domain.User](ctx, s.DB)
}

// Get returns the live user id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.Get[domain.User](ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// Create inserts a user with the given roles and status. Empty roles default
// to USER and an empty status to NOT_ACTIVATED.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	taken, err := repo.EmailTaken(ctx, s.DB, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	hash, err := auth.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:                email,
		Password:             hash,
		Roles:                normalizeEnums(in.Roles),
		Status:               normalizeEnum(in.Status),
		PhoneNumber:          in.PhoneNumber,
		AlternatePhoneNumber: in.AlternatePhoneNumber,
		Point:                in.Point,
	}
	if err := repo.Create(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Update applies p to the live user id.
func (s *UserService) Update(ctx context.Context, id string, p UserPatch) (*domain.User, error) {
	var hash string
	if p.Password != nil {
		h, err := auth.HashPassword(*p.Password, s.BcryptCost)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	u, err := repo.Update(ctx, s.DB, id, func(u *domain.User) {
		if hash != "" {
			u.Password = hash
		}
		if len(p.Roles) > 0 {
			u.Roles = normalizeEnums(p.Roles)
		}
		if p.Status != nil {
			u.Status = normalizeEnum(*p.Status)
		}
		if p.PhoneNumber != nil {
			u.PhoneNumber = *p.PhoneNumber
		}
		if p.AlternatePhoneNumber != nil {
			u.AlternatePhoneNumber = *p.AlternatePhoneNumber
		}
		if p.Point != nil {
			u.Point = p.Point
		}
	})
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// Delete soft-deletes the live user id.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return notFound(repo.Delete[domain.User](ctx, s.DB, id), ErrUserNotFound)
}
