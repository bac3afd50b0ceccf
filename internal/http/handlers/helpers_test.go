package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/rescue-api/internal/auth"
	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/http/middleware"
	"github.com/tbourn/rescue-api/internal/http/response"
	"github.com/tbourn/rescue-api/internal/services"
	"github.com/tbourn/rescue-api/internal/utils"
	"github.com/tbourn/rescue-api/internal/validation"
)

var errUnexpected = errors.New("unexpected call")

// ---------- engine + request helpers ----------

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(nil), middleware.ErrorHandler(middleware.ErrorOptions{}), middleware.Recovery())
	return r
}

// as returns a middleware that authenticates every request as id.
func as(id string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetIdentity(c, auth.Identity{ID: id, Roles: roles})
		c.Next()
	}
}

func jsonBody[T any](v *validation.Validator) gin.HandlerFunc {
	return middleware.ValidateBody[T](v, middleware.Strict)
}

func do(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Paging  *utils.Paging   `json:"paging"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("invalid envelope %q: %v", w.Body.String(), err)
	}
	return e
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var b response.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatalf("invalid error body %q: %v", w.Body.String(), err)
	}
	return b
}

// ---------- service stubs ----------

type stubAuth struct {
	signup    func(services.SignupInput) (*domain.User, error)
	verify    func(email, otp string) (*domain.User, error)
	login     func(email, password string) (*services.Session, error)
	principal func(id string) (*domain.User, error)
}

func (s stubAuth) Signup(_ context.Context, in services.SignupInput) (*domain.User, error) {
	if s.signup == nil {
		return nil, errUnexpected
	}
	return s.signup(in)
}

func (s stubAuth) Verify(_ context.Context, email, otp string) (*domain.User, error) {
	if s.verify == nil {
		return nil, errUnexpected
	}
	return s.verify(email, otp)
}

func (s stubAuth) Login(_ context.Context, email, password string) (*services.Session, error) {
	if s.login == nil {
		return nil, errUnexpected
	}
	return s.login(email, password)
}

func (s stubAuth) Principal(_ context.Context, id string) (*domain.User, error) {
	if s.principal == nil {
		return nil, errUnexpected
	}
	return s.principal(id)
}

type stubUsers struct {
	users   map[string]*domain.User
	deleted []string
}

func (s *stubUsers) ListPage(context.Context, int, int) ([]domain.User, int64, error) {
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (s *stubUsers) Raw(ctx context.Context) ([]domain.User, error) {
	out, _, err := s.ListPage(ctx, 1, 100)
	return out, err
}

func (s *stubUsers) Get(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, services.ErrUserNotFound
}

func (s *stubUsers) Create(_ context.Context, in services.CreateUserInput) (*domain.User, error) {
	u := &domain.User{ID: domain.NewObjectID(), Email: in.Email, Roles: in.Roles, Status: in.Status}
	s.users[u.ID] = u
	return u, nil
}

func (s *stubUsers) Update(_ context.Context, id string, p services.UserPatch) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	return u, nil
}

func (s *stubUsers) Delete(_ context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return services.ErrUserNotFound
	}
	delete(s.users, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type stubNGOs struct {
	lastQuery services.NearQuery
	near      []services.NearbyNGO
}

func (s *stubNGOs) Near(_ context.Context, q services.NearQuery) ([]services.NearbyNGO, error) {
	s.lastQuery = q
	return s.near, nil
}

func (s *stubNGOs) Raw(context.Context) ([]domain.NGO, error) { return nil, nil }

func (s *stubNGOs) Get(context.Context, string) (*domain.NGO, error) {
	return nil, services.ErrNGONotFound
}

func (s *stubNGOs) Create(_ context.Context, userID string, in services.NGOInput) (*domain.NGO, error) {
	return &domain.NGO{ID: domain.NewObjectID(), Name: in.Name, PhoneNumber: in.PhoneNumber, Area: in.Area, AddedBy: userID}, nil
}

func (s *stubNGOs) Update(context.Context, string, services.NGOPatch) (*domain.NGO, error) {
	return nil, errUnexpected
}

func (s *stubNGOs) Verify(context.Context, string) (*domain.NGO, error) {
	return nil, errUnexpected
}

func (s *stubNGOs) Delete(context.Context, string) error { return errUnexpected }

type stubCases struct {
	cases   map[string]*domain.Case
	created int
	lastKey string
	noNGO   bool
}

func (s *stubCases) ListPage(context.Context, int, int) ([]domain.Case, int64, error) {
	return nil, 0, nil
}

func (s *stubCases) Raw(context.Context) ([]domain.Case, error) { return nil, nil }

func (s *stubCases) Get(_ context.Context, id string) (*domain.Case, error) {
	if cs, ok := s.cases[id]; ok {
		return cs, nil
	}
	return nil, services.ErrCaseNotFound
}

func (s *stubCases) Create(_ context.Context, userID string, in services.CaseInput, key string) (*domain.Case, error) {
	if s.noNGO {
		return nil, services.ErrNoNGO
	}
	s.created++
	s.lastKey = key
	cs := &domain.Case{
		ID:            domain.NewObjectID(),
		AnimalDetails: in.AnimalDetails,
		PhoneNumber:   in.PhoneNumber,
		Point:         in.Point,
		Status:        domain.CaseOpen,
		AddedBy:       userID,
	}
	s.cases[cs.ID] = cs
	return cs, nil
}

func (s *stubCases) Update(_ context.Context, id string, p services.CasePatch) (*domain.Case, error) {
	cs, ok := s.cases[id]
	if !ok {
		return nil, services.ErrCaseNotFound
	}
	if p.AnimalType != nil {
		cs.AnimalDetails.Type = *p.AnimalType
	}
	if p.Status != nil {
		cs.Status = *p.Status
	}
	return cs, nil
}

func (s *stubCases) Delete(context.Context, string) error { return nil }

type stubHistory struct {
	missingCase bool
}

func (s stubHistory) Get(context.Context, string) (*domain.CaseHistory, error) {
	return nil, services.ErrCaseHistoryNotFound
}

func (s stubHistory) Create(_ context.Context, userID string, in services.CaseHistoryInput) (*domain.CaseHistory, error) {
	if s.missingCase {
		return nil, services.ErrCaseNotFound
	}
	return &domain.CaseHistory{ID: domain.NewObjectID(), Description: in.Description, CaseID: in.Case, AssignedTo: in.AssignedTo, AddedBy: userID}, nil
}

func (s stubHistory) Update(context.Context, string, services.CaseHistoryPatch) (*domain.CaseHistory, error) {
	return nil, errUnexpected
}

type stubTags struct {
	total int64
}

func (s stubTags) ListPage(_ context.Context, page, limit int) ([]domain.Tag, int64, error) {
	return []domain.Tag{{ID: domain.NewObjectID(), Name: "injured"}}, s.total, nil
}

func (s stubTags) Get(context.Context, string) (*domain.Tag, error) {
	return nil, services.ErrTagNotFound
}

func (s stubTags) Create(_ context.Context, name string) (*domain.Tag, error) {
	return &domain.Tag{ID: domain.NewObjectID(), Name: name}, nil
}

func (s stubTags) Rename(_ context.Context, id, name string) (*domain.Tag, error) {
	return &domain.Tag{ID: id, Name: name}, nil
}

func (s stubTags) Delete(context.Context, string) error { return nil }

type stubUploads struct {
	err      error
	gotName  string
	gotBytes []byte
}

func (s *stubUploads) Avatar(_ context.Context, userID string, f services.FileInput) (*domain.Upload, error) {
	if s.err != nil {
		return nil, s.err
	}
	b, err := io.ReadAll(f.Reader)
	if err != nil {
		return nil, err
	}
	s.gotName, s.gotBytes = f.Name, b
	return &domain.Upload{
		ID:       domain.NewObjectID(),
		Type:     domain.MediaImage,
		FileName: f.Name,
		Size:     f.Size,
		AddedBy:  userID,
		Referer:  domain.Referer{Type: domain.RefererUser, Object: userID},
	}, nil
}

func (s *stubUploads) Get(context.Context, string) (*domain.Upload, error) {
	return nil, services.ErrUploadNotFound
}

func (s *stubUploads) Update(_ context.Context, id string, p services.UploadPatch) (*domain.Upload, error) {
	u := &domain.Upload{ID: id}
	if p.Title != nil {
		u.Title = *p.Title
	}
	if p.Referer != nil {
		u.Referer = *p.Referer
	}
	return u, nil
}
