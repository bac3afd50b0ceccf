package domain

import (
	"testing"
	"time"
)

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		User{}.TableName():           "users",
		UserValidation{}.TableName(): "user_validations",
		NGO{}.TableName():            "ngos",
		Case{}.TableName():           "cases",
		CaseHistory{}.TableName():    "case_histories",
		Tag{}.TableName():            "tags",
		Upload{}.TableName():         "uploads",
		Idempotency{}.TableName():    "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_HooksAndSoftDelete(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&User{}, &UserValidation{}, &NGO{}, &Case{}, &CaseHistory{}, &Tag{}, &Upload{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	u := &User{Email: "a@b.co", Password: "hash"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !IsObjectID(u.ID) {
		t.Fatalf("expected ObjectID, got %q", u.ID)
	}
	if u.Status != UserNotActivated || !u.HasRole(RoleUser) || u.HasRole(RoleAdmin) {
		t.Fatalf("defaults not applied: %+v", u)
	}

	c := &Case{
		AnimalDetails: AnimalDetails{Type: AnimalDog, Name: "Rex"},
		PhoneNumber:   "9876543210",
		Point:         &Point{Type: "Point", Coordinates: []float64{72.8, 19.0}},
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create case: %v", err)
	}
	h := &CaseHistory{Description: "picked up", CaseID: c.ID, AssignedTo: u.ID}
	if err := db.Create(h).Error; err != nil {
		t.Fatalf("create history: %v", err)
	}

	var got Case
	if err := db.Preload("History").First(&got, "id = ?", c.ID).Error; err != nil {
		t.Fatalf("read case: %v", err)
	}
	if got.Status != CaseOpen || got.AnimalDetails.Name != "Rex" || len(got.History) != 1 {
		t.Fatalf("unexpected case: %+v", got)
	}
	if got.Point == nil || got.Point.Lon() != 72.8 || got.Point.Lat() != 19.0 {
		t.Fatalf("point not round-tripped: %+v", got.Point)
	}

	tag := &Tag{Name: "urgent"}
	db.Create(tag)
	db.Delete(tag)
	var n int64
	db.Model(&Tag{}).Count(&n)
	if n != 0 {
		t.Fatalf("soft-deleted tag should be hidden, count=%d", n)
	}
	db.Unscoped().Model(&Tag{}).Count(&n)
	if n != 1 {
		t.Fatalf("unscoped count=%d; want 1", n)
	}
}

func TestObjectID(t *testing.T) {
	a, b := NewObjectID(), NewObjectID()
	if a == b || !IsObjectID(a) || !IsObjectID(b) {
		t.Fatalf("bad ids %q %q", a, b)
	}
	early := newObjectIDAt(time.Unix(1_000_000, 0))
	late := newObjectIDAt(time.Unix(2_000_000, 0))
	if early >= late {
		t.Fatalf("ids should sort by time: %s >= %s", early, late)
	}
	for _, bad := range []string{"abc", "", "zzzzzzzzzzzzzzzzzzzzzzzz", a + "0"} {
		if IsObjectID(bad) {
			t.Fatalf("IsObjectID(%q) should be false", bad)
		}
	}
}

func TestGeo_LocationAndCentroid(t *testing.T) {
	square := &Polygon{Type: "Polygon", Coordinates: [][][]float64{{
		{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0},
	}}}
	lon, lat, ok := square.Centroid()
	if !ok || lon != 1 || lat != 1 {
		t.Fatalf("centroid = (%v,%v,%v)", lon, lat, ok)
	}
	if _, _, ok := (Polygon{}).Centroid(); ok {
		t.Fatalf("empty polygon has no centroid")
	}

	n := &NGO{Area: square}
	if lon, lat, ok := n.Location(); !ok || lon != 1 || lat != 1 {
		t.Fatalf("area fallback failed: %v %v %v", lon, lat, ok)
	}
	n.Point = &Point{Type: "Point", Coordinates: []float64{5, 6}}
	if lon, lat, _ := n.Location(); lon != 5 || lat != 6 {
		t.Fatalf("point should win: %v %v", lon, lat)
	}
	if (Point{}).Lon() != 0 || (Point{}).Lat() != 0 {
		t.Fatalf("malformed point should yield zeros")
	}
}
