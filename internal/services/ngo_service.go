// Package services – NGOService
//
// This file implements NGO management and proximity search. NGOs are ranked
// in memory by haversine distance from the query origin to the NGO's point,
// or to the centroid of its area when no point is set.
package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/repo"
	"github.com/tbourn/rescue-api/internal/search"
)

// NearQuery selects NGOs around a position. Nil fields take the service
// defaults; distances are kilometres.
type NearQuery struct {
	Longitude   *float64
	Latitude    *float64
	MaxDistance *float64
	MinDistance *float64
}

// NearbyNGO is an NGO with its distance from the query origin.
type NearbyNGO struct {
	domain.NGO
	DistanceKM float64 `json:"distanceKm" example:"1.42"`
}

// NGOInput is the data for a new NGO.
type NGOInput struct {
	Name                 string
	Description          string
	Address              string
	PhoneNumber          string
	AlternatePhoneNumber string
	Point                *domain.Point
	Area                 *domain.Polygon
}

// NGOPatch holds optional NGO changes.
type NGOPatch struct {
	Name                 *string
	Description          *string
	Address              *string
	PhoneNumber          *string
	AlternatePhoneNumber *string
	Point                *domain.Point
	Area                 *domain.Polygon
}

// NGOService manages NGOs.
type NGOService struct {
	DB *gorm.DB

	// DefaultOrigin is used when a near query omits coordinates.
	DefaultOrigin search.Origin
	// MaxDistanceKM is the default search radius.
	MaxDistanceKM float64

	now func() time.Time
}

// NewNGOService constructs an NGOService centred on Mumbai with an 8 km
// radius.
func NewNGOService(db *gorm.DB) *NGOService {
	return &NGOService{
		DB:            db,
		DefaultOrigin: search.Origin{Lon: 72.877, Lat: 19.076},
		MaxDistanceKM: 8,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Near returns NGOs within the query's distance band, nearest first.
func (s *NGOService) Near(ctx context.Context, q NearQuery) ([]NearbyNGO, error) {
	origin := s.DefaultOrigin
	if q.Longitude != nil {
		origin.Lon = *q.Longitude
	}
	if q.Latitude != nil {
		origin.Lat = *q.Latitude
	}
	maxKM := s.MaxDistanceKM
	if q.MaxDistance != nil {
		maxKM = *q.MaxDistance
	}
	opts := []search.Option{search.WithMaxDistance(maxKM)}
	if q.MinDistance != nil {
		opts = append(opts, search.WithMinDistance(*q.MinDistance))
	}

	tr := otel.Tracer("services/NGOService")
	ctx, span := tr.Start(ctx, "Near",
		trace.WithAttributes(
			attribute.Float64("geo.lon", origin.Lon),
			attribute.Float64("geo.lat", origin.Lat),
			attribute.Float64("geo.max_km", maxKM),
		),
	)
	defer span.End()

	ngos, err := repo.ListNGOs(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	ranked := search.Near(ngos, ngoLocation, origin, opts...)
	span.SetAttributes(attribute.Int("ngo.candidates", len(ngos)), attribute.Int("ngo.matches", len(ranked)))
	out := make([]NearbyNGO, len(ranked))
	for i, r := range ranked {
		out[i] = NearbyNGO{NGO: r.Item, DistanceKM: r.DistanceKM}
	}
	return out, nil
}

// Raw returns every NGO, deleted ones included.
func (s *NGOService) Raw(ctx context.Context) ([]domain.NGO, error) {
	return repo.Raw[domain.NGO](ctx, s.DB)
}

// Get returns the live NGO id.
func (s *NGOService) Get(ctx context.Context, id string) (*domain.NGO, error) {
	n, err := repo.Get[domain.NGO](ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrNGONotFound)
	}
	return n, nil
}

// Create inserts an NGO added by userID.
func (s *NGOService) Create(ctx context.Context, userID string, in NGOInput) (*domain.NGO, error) {
	n := &domain.NGO{
		Name:                 in.Name,
		Description:          in.Description,
		Address:              in.Address,
		PhoneNumber:          in.PhoneNumber,
		AlternatePhoneNumber: in.AlternatePhoneNumber,
		Point:                in.Point,
		Area:                 in.Area,
		AddedBy:              userID,
	}
	if err := repo.Create(ctx, s.DB, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Update applies p to the live NGO id.
func (s *NGOService) Update(ctx context.Context, id string, p NGOPatch) (*domain.NGO, error) {
	n, err := repo.Update(ctx, s.DB, id, func(n *domain.NGO) {
		setString(&n.Name, p.Name)
		setString(&n.Description, p.Description)
		setString(&n.Address, p.Address)
		setString(&n.PhoneNumber, p.PhoneNumber)
		setString(&n.AlternatePhoneNumber, p.AlternatePhoneNumber)
		if p.Point != nil {
			n.Point = p.Point
		}
		if p.Area != nil {
			n.Area = p.Area
		}
	})
	if err != nil {
		return nil, notFound(err, ErrNGONotFound)
	}
	return n, nil
}

// Verify stamps the NGO as verified now. Verifying twice keeps the first
// timestamp.
func (s *NGOService) Verify(ctx context.Context, id string) (*domain.NGO, error) {
	now := s.now()
	n, err := repo.Update(ctx, s.DB, id, func(n *domain.NGO) {
		if n.VerifiedAt == nil {
			n.VerifiedAt = &now
		}
	})
	if err != nil {
		return nil, notFound(err, ErrNGONotFound)
	}
	return n, nil
}

// Delete soft-deletes the live NGO id.
func (s *NGOService) Delete(ctx context.Context, id string) error {
	return notFound(repo.Delete[domain.NGO](ctx, s.DB, id), ErrNGONotFound)
}

func ngoLocation(n domain.NGO) (float64, float64, bool) { return n.Location() }

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
