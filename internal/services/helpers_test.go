package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/notify"
	"github.com/tbourn/rescue-api/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func point(lon, lat float64) *domain.Point {
	return &domain.Point{Type: "Point", Coordinates: []float64{lon, lat}}
}

func square(lon, lat, d float64) *domain.Polygon {
	return &domain.Polygon{Type: "Polygon", Coordinates: [][][]float64{{
		{lon - d, lat - d}, {lon + d, lat - d}, {lon + d, lat + d}, {lon - d, lat + d}, {lon - d, lat - d},
	}}}
}

func seedUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Password: "x"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedNGO(t *testing.T, db *gorm.DB, name string, p *domain.Point, area *domain.Polygon) *domain.NGO {
	t.Helper()
	n := &domain.NGO{Name: name, PhoneNumber: "9876543210", Point: p, Area: area}
	if err := db.Create(n).Error; err != nil {
		t.Fatalf("seed ngo: %v", err)
	}
	return n
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (r *recordingNotifier) Send(_ context.Context, m notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return r.err
}

func ptr[T any](v T) *T { return &v }
