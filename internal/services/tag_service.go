// Package services – TagService
//
// This file implements free-form tags. Names are normalized (trimmed,
// whitespace collapsed, lower-cased) before storage.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/repo"
	"github.com/tbourn/rescue-api/internal/utils"
)

// TagService manages tags.
type TagService struct {
	DB *gorm.DB
}

// ListPage returns one page of live tags, newest first.
func (s *TagService) ListPage(ctx context.Context, page, limit int) ([]domain.Tag, int64, error) {
	_, limit, offset := utils.Clamp(page, limit)
	return repo.Page[domain.Tag](ctx, s.DB, offset, limit)
}

// Get returns the live tag id.
func (s *TagService) Get(ctx context.Context, id string) (*domain.Tag, error) {
	t, err := repo.Get[domain.Tag](ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrTagNotFound)
	}
	return t, nil
}

// Create inserts a tag named name.
func (s *TagService) Create(ctx context.Context, name string) (*domain.Tag, error) {
	t := &domain.Tag{Name: normalizeName(name)}
	if err := repo.Create(ctx, s.DB, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Rename changes the name of the live tag id.
func (s *TagService) Rename(ctx context.Context, id, name string) (*domain.Tag, error) {
	t, err := repo.Update(ctx, s.DB, id, func(t *domain.Tag) {
		t.Name = normalizeName(name)
	})
	if err != nil {
		return nil, notFound(err, ErrTagNotFound)
	}
	return t, nil
}

// Delete soft-deletes the live tag id.
func (s *TagService) Delete(ctx context.Context, id string) error {
	return notFound(repo.Delete[domain.Tag](ctx, s.DB, id), ErrTagNotFound)
}
