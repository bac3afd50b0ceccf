// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the API's
// home endpoint.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/rescue-api/internal/domain"
)

// TableStats is the live row count of one table and its latest update.
type TableStats struct {
	Count       int64      `json:"count"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// Summary aggregates the tables shown on the home endpoint.
type Summary struct {
	Users     TableStats `json:"users"`
	NGOs      TableStats `json:"ngos"`
	Cases     TableStats `json:"cases"`
	OpenCases int64      `json:"openCases"`
}

// Stats returns the live row count of T's table and the greatest UpdatedAt
// among those rows. An empty table yields (0, nil).
func Stats[T any](ctx context.Context, db *gorm.DB) (TableStats, error) {
	var st TableStats
	q := db.WithContext(ctx).Model(new(T))
	if err := q.Count(&st.Count).Error; err != nil {
		return TableStats{}, err
	}
	if st.Count == 0 {
		return st, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err := db.WithContext(ctx).Model(new(T)).Select("updated_at").
		Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return TableStats{}, err
	}
	st.LastUpdated = &row.UpdatedAt
	return st, nil
}

// Summarize collects Stats for users, NGOs and cases plus the number of
// cases still open.
func Summarize(ctx context.Context, db *gorm.DB) (Summary, error) {
	var (
		s   Summary
		err error
	)
	if s.Users, err = Stats[domain.User](ctx, db); err != nil {
		return Summary{}, err
	}
	if s.NGOs, err = Stats[domain.NGO](ctx, db); err != nil {
		return Summary{}, err
	}
	if s.Cases, err = Stats[domain.Case](ctx, db); err != nil {
		return Summary{}, err
	}
	err = db.WithContext(ctx).Model(&domain.Case{}).
		Where("status = ?", domain.CaseOpen).
		Count(&s.OpenCases).Error
	return s, err
}
