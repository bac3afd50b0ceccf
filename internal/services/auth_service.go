// Package services – AuthService
//
// This file implements signup, OTP verification, login and principal lookup.
// Passwords are bcrypt-hashed, signup leaves the account NOT_ACTIVATED until
// the emailed OTP is verified, and login mints an HS256 bearer token.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/rescue-api/internal/auth"
	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/notify"
	"github.com/tbourn/rescue-api/internal/repo"
)

// SignupInput is the data needed to register an account.
type SignupInput struct {
	Email       string
	Password    string
	PhoneNumber string
	Point       *domain.Point
}

// Session is the result of a successful login.
type Session struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn" example:"3600"`
	ExpiresAt time.Time    `json:"-"`
}

// AuthService handles account registration and authentication.
type AuthService struct {
	DB       *gorm.DB
	Tokens   *auth.Issuer
	Notifier notify.Notifier

	// BcryptCost is passed to auth.HashPassword.
	BcryptCost int
	// OTPTTL is how long a signup code stays valid.
	OTPTTL time.Duration

	now func() time.Time
}

// NewAuthService constructs an AuthService with a 15 minute OTP lifetime.
func NewAuthService(db *gorm.DB, tokens *auth.Issuer, n notify.Notifier) *AuthService {
	return &AuthService{
		DB:         db,
		Tokens:     tokens,
		Notifier:   n,
		BcryptCost: 10,
		OTPTTL:     15 * time.Minute,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Signup creates a NOT_ACTIVATED user with role USER, records a pending
// validation and sends its OTP through the notifier. Notification failures
// never fail the signup.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
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
	otp, err := auth.GenerateOTP()
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Email:       email,
		Password:    hash,
		Roles:       []string{domain.RoleUser},
		Status:      domain.UserNotActivated,
		PhoneNumber: in.PhoneNumber,
		Point:       in.Point,
	}
	v := &domain.UserValidation{
		Email:     email,
		OTP:       otp,
		Token:     domain.NewObjectID(),
		ExpiresAt: s.now().Add(s.OTPTTL),
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.Create(ctx, tx, u); err != nil {
			return err
		}
		return repo.Create(ctx, tx, v)
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		msg := notify.Message{
			Kind:    notify.KindSignupOTP,
			To:      email,
			Subject: "Verify your account",
			Data:    map[string]string{"otp": otp},
		}
		if err := s.Notifier.Send(ctx, msg); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("signup notification failed")
		}
	}
	return u, nil
}

// Verify checks otp against the newest pending validation for email and
// activates the account.
func (s *AuthService) Verify(ctx context.Context, email, otp string) (*domain.User, error) {
	email = normalizeEmail(email)
	v, err := repo.PendingValidation(ctx, s.DB, email, s.now())
	if err != nil {
		return nil, notFound(err, ErrInvalidOTP)
	}
	if subtle.ConstantTimeCompare([]byte(v.OTP), []byte(otp)) != 1 {
		return nil, ErrInvalidOTP
	}
	if err := repo.CompleteValidation(ctx, s.DB, v, s.now()); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	u, err := repo.FindUserByEmail(ctx, s.DB, email)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// Login checks the credentials and issues a bearer token carrying the
// user's roles.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := repo.FindUserByEmail(ctx, s.DB, email)
	if err != nil {
		return nil, notFound(err, ErrInvalidCredentials)
	}
	if err := auth.CheckPassword(u.Password, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	token, exp, err := s.Tokens.Issue(u.ID, u.Roles)
	if err != nil {
		return nil, err
	}
	return &Session{
		User:      u,
		Token:     token,
		ExpiresIn: int64(s.Tokens.TTL() / time.Second),
		ExpiresAt: exp,
	}, nil
}

// Principal loads the live user behind a session token.
func (s *AuthService) Principal(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.Get[domain.User](ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
