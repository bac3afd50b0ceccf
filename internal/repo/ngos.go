// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides NGO queries used by proximity search.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/rescue-api/internal/domain"
)

// ListNGOs returns every live NGO. Proximity ranking happens in memory, so
// the whole table is loaded.
// TODO: prefilter by a bounding box once the table grows past a few thousand rows.
func ListNGOs(ctx context.Context, db *gorm.DB) ([]domain.NGO, error) {
	out := make([]domain.NGO, 0)
	err := db.WithContext(ctx).Order("created_at asc").Find(&out).Error
	return out, err
}
