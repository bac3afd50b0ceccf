// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: request data arrives already validated (the
// router mounts the schema validator in front of every handler), handlers
// call application services, and return either response options for the
// success envelope or an error for the error middleware. They never write
// failure bodies themselves.
package handlers

import (
	"context"

	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/repo"
	"github.com/tbourn/rescue-api/internal/services"
)

//
// Service contracts (context-aware)
//

// AuthService covers signup, verification, login and session principals.
type AuthService interface {
	Signup(ctx context.Context, in services.SignupInput) (*domain.User, error)
	Verify(ctx context.Context, email, otp string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Principal(ctx context.Context, id string) (*domain.User, error)
}

// UserService covers user administration.
type UserService interface {
	ListPage(ctx context.Context, page, limit int) ([]domain.User, int64, error)
	Raw(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, in services.CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, id string, p services.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// NGOService covers NGO management and proximity search.
type NGOService interface {
	Near(ctx context.Context, q services.NearQuery) ([]services.NearbyNGO, error)
	Raw(ctx context.Context) ([]domain.NGO, error)
	Get(ctx context.Context, id string) (*domain.NGO, error)
	Create(ctx context.Context, userID string, in services.NGOInput) (*domain.NGO, error)
	Update(ctx context.Context, id string, p services.NGOPatch) (*domain.NGO, error)
	Verify(ctx context.Context, id string) (*domain.NGO, error)
	Delete(ctx context.Context, id string) error
}

// CaseService covers rescue cases.
type CaseService interface {
	ListPage(ctx context.Context, page, limit int) ([]domain.Case, int64, error)
	Raw(ctx context.Context) ([]domain.Case, error)
	Get(ctx context.Context, id string) (*domain.Case, error)
	Create(ctx context.Context, userID string, in services.CaseInput, idemKey string) (*domain.Case, error)
	Update(ctx context.Context, id string, p services.CasePatch) (*domain.Case, error)
	Delete(ctx context.Context, id string) error
}

// CaseHistoryService covers case timeline entries.
type CaseHistoryService interface {
	Get(ctx context.Context, id string) (*domain.CaseHistory, error)
	Create(ctx context.Context, userID string, in services.CaseHistoryInput) (*domain.CaseHistory, error)
	Update(ctx context.Context, id string, p services.CaseHistoryPatch) (*domain.CaseHistory, error)
}

// TagService covers tags.
type TagService interface {
	ListPage(ctx context.Context, page, limit int) ([]domain.Tag, int64, error)
	Get(ctx context.Context, id string) (*domain.Tag, error)
	Create(ctx context.Context, name string) (*domain.Tag, error)
	Rename(ctx context.Context, id, name string) (*domain.Tag, error)
	Delete(ctx context.Context, id string) error
}

// UploadService covers media uploads.
type UploadService interface {
	Avatar(ctx context.Context, userID string, f services.FileInput) (*domain.Upload, error)
	Get(ctx context.Context, id string) (*domain.Upload, error)
	Update(ctx context.Context, id string, p services.UploadPatch) (*domain.Upload, error)
}

// StatsFunc returns the home endpoint summary.
type StatsFunc func(ctx context.Context) (repo.Summary, error)

//
// Handler wiring
//

// Services bundles the services the handlers depend on. Nil members are
// allowed as long as the matching routes are not mounted.
type Services struct {
	Auth        AuthService
	Users       UserService
	NGOs        NGOService
	Cases       CaseService
	CaseHistory CaseHistoryService
	Tags        TagService
	Uploads     UploadService
	Stats       StatsFunc
}

// Options tunes transport details.
type Options struct {
	// CookieName names the session cookie. Defaults to "Authorization".
	CookieName string
	// SecureCookie sets the Secure attribute on the session cookie.
	SecureCookie bool
	// AvatarField is the multipart field of avatar uploads. Defaults to "avatar".
	AvatarField string
	// MaxUploadBytes caps one uploaded file. Defaults to 2 MiB.
	MaxUploadBytes int64
}

// Handlers groups the HTTP endpoints of every resource.
type Handlers struct {
	svc  Services
	opts Options
}

// New constructs and returns a Handlers instance bound to the given services.
func New(svc Services, opts Options) *Handlers {
	if opts.CookieName == "" {
		opts.CookieName = "Authorization"
	}
	if opts.AvatarField == "" {
		opts.AvatarField = "avatar"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 2 << 20
	}
	return &Handlers{svc: svc, opts: opts}
}
