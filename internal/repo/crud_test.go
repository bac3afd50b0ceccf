package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/rescue-api/internal/domain"
)

func TestCreateGet_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tag := &domain.Tag{Name: "injured"}
	if err := Create(ctx, db, tag); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !domain.IsObjectID(tag.ID) {
		t.Fatalf("expected ObjectID, got %q", tag.ID)
	}

	got, err := Get[domain.Tag](ctx, db, tag.ID)
	if err != nil || got.Name != "injured" {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}

	if _, err := Get[domain.Tag](ctx, db, domain.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &domain.User{Email: "a@example.com", Password: "x"}
	if err := Create(ctx, db, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dup := &domain.User{Email: "a@example.com", Password: "y"}
	if err := Create(ctx, db, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGet_Preload(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c := &domain.Case{
		AnimalDetails: domain.AnimalDetails{Type: domain.AnimalCat},
		PhoneNumber:   "9876543210",
		Point:         &domain.Point{Type: "Point", Coordinates: []float64{1, 2}},
	}
	if err := Create(ctx, db, c); err != nil {
		t.Fatalf("Create case: %v", err)
	}
	h := &domain.CaseHistory{Description: "picked up", CaseID: c.ID, AssignedTo: domain.NewObjectID()}
	if err := Create(ctx, db, h); err != nil {
		t.Fatalf("Create history: %v", err)
	}

	got, err := Get[domain.Case](ctx, db, c.ID, "History")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.History) != 1 || got.History[0].Description != "picked up" {
		t.Fatalf("history not preloaded: %+v", got.History)
	}
}

func TestExists(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tag := &domain.Tag{Name: "x"}
	_ = Create(ctx, db, tag)

	if ok, err := Exists[domain.Tag](ctx, db, tag.ID); err != nil || !ok {
		t.Fatalf("Exists(live) = %v, %v", ok, err)
	}
	if ok, err := Exists[domain.Tag](ctx, db, domain.NewObjectID()); err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}
}

func TestPage_NewestFirstWithTotal(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b", "c"} {
		tag := &domain.Tag{Name: name, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := Create(ctx, db, tag); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	rows, total, err := Page[domain.Tag](ctx, db, 0, 2)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if total != 3 || len(rows) != 2 || rows[0].Name != "c" || rows[1].Name != "b" {
		t.Fatalf("unexpected page: total=%d rows=%+v", total, rows)
	}

	rows, _, _ = Page[domain.Tag](ctx, db, 2, 2)
	if len(rows) != 1 || rows[0].Name != "a" {
		t.Fatalf("unexpected second page: %+v", rows)
	}
}

func TestPage_Empty(t *testing.T) {
	db := newTestDB(t)
	rows, total, err := Page[domain.Tag](context.Background(), db, 0, 10)
	if err != nil || total != 0 || rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil slice, got rows=%v total=%d err=%v", rows, total, err)
	}
}

func TestUpdate_MutatesAndSaves(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &domain.User{Email: "u@example.com", Password: "x"}
	_ = Create(ctx, db, u)

	got, err := Update(ctx, db, u.ID, func(v *domain.User) {
		v.Roles = []string{domain.RoleAdmin, domain.RoleUser}
		v.Point = &domain.Point{Type: "Point", Coordinates: []float64{3, 4}}
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.HasRole(domain.RoleAdmin) {
		t.Fatalf("returned row not mutated: %+v", got)
	}

	reloaded, _ := Get[domain.User](ctx, db, u.ID)
	if !reloaded.HasRole(domain.RoleAdmin) || reloaded.Point == nil || reloaded.Point.Lat() != 4 {
		t.Fatalf("update not persisted: %+v", reloaded)
	}

	if _, err := Update(ctx, db, domain.NewObjectID(), func(*domain.User) {}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_SoftAndRaw(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	keep := &domain.Tag{Name: "keep"}
	gone := &domain.Tag{Name: "gone"}
	_ = Create(ctx, db, keep)
	_ = Create(ctx, db, gone)

	if err := Delete[domain.Tag](ctx, db, gone.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := Delete[domain.Tag](ctx, db, gone.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: expected ErrNotFound, got %v", err)
	}
	if _, err := Get[domain.Tag](ctx, db, gone.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("soft-deleted row still visible: %v", err)
	}

	all, err := Raw[domain.Tag](ctx, db)
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Raw should include soft-deleted rows, got %d", len(all))
	}
	// Deleted rows sort first.
	if all[0].ID != gone.ID || !all[0].DeletedAt.Valid {
		t.Fatalf("unexpected Raw order: %+v", all)
	}
}
