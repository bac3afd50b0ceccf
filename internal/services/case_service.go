// Package services – CaseService
//
// This file implements rescue case management. A new case is assigned to the
// nearest live NGO regardless of distance; when an Idempotency-Key
// accompanies the create, the created case id is recorded in the same
// transaction so a retried request can be answered with the original case.
package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/repo"
	"github.com/tbourn/rescue-api/internal/search"
	"github.com/tbourn/rescue-api/internal/utils"
)

// IdempotencyScopeCases namespaces idempotency keys of case creation.
const IdempotencyScopeCases = "cases"

// CaseInput is the data for a new case.
type CaseInput struct {
	AnimalDetails        domain.AnimalDetails
	Description          string
	Address              string
	PhoneNumber          string
	AlternatePhoneNumber string
	Point                *domain.Point
	Area                 *domain.Polygon
}

// CasePatch holds the case fields that may change after creation.
type CasePatch struct {
	AnimalType *string
	Status     *string
	Point      *domain.Point
}

// CaseService manages rescue cases.
type CaseService struct {
	DB *gorm.DB
	// IdempotencyTTL is how long a recorded key replays the original case.
	IdempotencyTTL time.Duration
}

// NewCaseService constructs a CaseService with a 24h idempotency window.
func NewCaseService(db *gorm.DB) *CaseService {
	return &CaseService{DB: db, IdempotencyTTL: 24 * time.Hour}
}

// ListPage returns one page of live cases, newest first.
func (s *CaseService) ListPage(ctx context.Context, page, limit int) ([]domain.Case, int64, error) {
	_, limit, offset := utils.Clamp(page, limit)
	return repo.Page[domain.Case](ctx, s.DB, offset, limit)
}

// Raw returns every case, deleted ones included.
func (s *CaseService) Raw(ctx context.Context) ([]domain.Case, error) {
	return repo.Raw[domain.Case](ctx, s.DB)
}

// Get returns the live case id with its history.
func (s *CaseService) Get(ctx context.Context, id string) (*domain.Case, error) {
	c, err := repo.Get[domain.Case](ctx, s.DB, id, "History")
	if err != nil {
		return nil, notFound(err, ErrCaseNotFound)
	}
	return c, nil
}

// Create inserts a case reported by userID and assigns it to the nearest
// NGO. With a non-empty idemKey the result is recorded for replay; a
// concurrent request that recorded the same key first wins and its case is
// returned instead.
func (s *CaseService) Create(ctx context.Context, userID string, in CaseInput, idemKey string) (*domain.Case, error) {
	tr := otel.Tracer("services/CaseService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Bool("idempotent", idemKey != ""),
		),
	)
	defer span.End()

	if in.Point == nil {
		return nil, errors.New("case point is required")
	}
	ngos, err := repo.ListNGOs(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	origin := search.Origin{Lon: in.Point.Lon(), Lat: in.Point.Lat()}
	nearest, ok := search.Nearest(ngos, ngoLocation, origin)
	if !ok {
		return nil, ErrNoNGO
	}

	details := in.AnimalDetails
	details.Type = normalizeEnum(details.Type)
	c := &domain.Case{
		AnimalDetails:        details,
		Description:          in.Description,
		Address:              in.Address,
		PhoneNumber:          in.PhoneNumber,
		AlternatePhoneNumber: in.AlternatePhoneNumber,
		Point:                in.Point,
		Area:                 in.Area,
		Status:               domain.CaseOpen,
		AssignedNGO:          nearest.Item.ID,
		AddedBy:              userID,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.Create(ctx, tx, c); err != nil {
			return err
		}
		if idemKey == "" || userID == "" {
			return nil
		}
		_, err := repo.CreateIdempotency(ctx, tx, userID, IdempotencyScopeCases, idemKey, c.ID, http.StatusCreated, s.IdempotencyTTL)
		return err
	})
	if errors.Is(err, repo.ErrDuplicate) && idemKey != "" {
		rec, gerr := repo.GetIdempotency(ctx, s.DB, userID, IdempotencyScopeCases, idemKey, time.Now().UTC())
		if gerr != nil {
			return nil, gerr
		}
		return s.Get(ctx, rec.ResourceID)
	}
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("case.id", c.ID), attribute.String("ngo.id", c.AssignedNGO))
	zerolog.Ctx(ctx).Info().
		Str("case_id", c.ID).
		Str("ngo_id", c.AssignedNGO).
		Float64("distance_km", nearest.DistanceKM).
		Msg("case assigned")
	return c, nil
}

// Update applies p to the live case id.
func (s *CaseService) Update(ctx context.Context, id string, p CasePatch) (*domain.Case, error) {
	c, err := repo.Update(ctx, s.DB, id, func(c *domain.Case) {
		if p.AnimalType != nil {
			c.AnimalDetails.Type = normalizeEnum(*p.AnimalType)
		}
		if p.Status != nil {
			c.Status = normalizeEnum(*p.Status)
		}
		if p.Point != nil {
			c.Point = p.Point
		}
	})
	if err != nil {
		return nil, notFound(err, ErrCaseNotFound)
	}
	return c, nil
}

// Delete soft-deletes the live case id.
func (s *CaseService) Delete(ctx context.Context, id string) error {
	return notFound(repo.Delete[domain.Case](ctx, s.DB, id), ErrCaseNotFound)
}
