// Package services – UploadService
//
// This file implements media uploads. Blobs go to a storage.Store under a
// key derived from the upload id; the Upload row records the public URL and
// what the media belongs to.
package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/repo"
	"github.com/tbourn/rescue-api/internal/storage"
)

// avatarTypes maps the accepted avatar extensions to content types.
var avatarTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// FileInput is one received file.
type FileInput struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// UploadPatch holds optional upload changes.
type UploadPatch struct {
	Title   *string
	Referer *domain.Referer
}

// UploadService stores media and its metadata.
type UploadService struct {
	DB    *gorm.DB
	Store storage.Store
	// MaxBytes caps a single file. Values <= 0 disable the check.
	MaxBytes int64
}

// Avatar stores f as userID's avatar image.
func (s *UploadService) Avatar(ctx context.Context, userID string, f FileInput) (*domain.Upload, error) {
	ext := strings.ToLower(filepath.Ext(f.Name))
	ct, ok := avatarTypes[ext]
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	if s.MaxBytes > 0 && f.Size > s.MaxBytes {
		return nil, ErrFileTooLarge
	}

	u := &domain.Upload{
		ID:        domain.NewObjectID(),
		Type:      domain.MediaImage,
		FileName:  filepath.Base(f.Name),
		Size:      f.Size,
		SizeHuman: humanSize(f.Size),
		AddedBy:   userID,
		Referer:   domain.Referer{Type: domain.RefererUser, Object: userID},
	}
	key := "avatars/" + u.ID + ext
	url, err := s.Store.Put(ctx, key, f.Reader, f.Size, ct)
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}
	u.URL = url

	if err := repo.Create(ctx, s.DB, u); err != nil {
		if derr := s.Store.Delete(ctx, key); derr != nil {
			zerolog.Ctx(ctx).Warn().Err(derr).Str("key", key).Msg("orphaned upload blob")
		}
		return nil, err
	}
	return u, nil
}

// Get returns the live upload id.
func (s *UploadService) Get(ctx context.Context, id string) (*domain.Upload, error) {
	u, err := repo.Get[domain.Upload](ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrUploadNotFound)
	}
	return u, nil
}

// Update applies p to the live upload id.
func (s *UploadService) Update(ctx context.Context, id string, p UploadPatch) (*domain.Upload, error) {
	u, err := repo.Update(ctx, s.DB, id, func(u *domain.Upload) {
		setString(&u.Title, p.Title)
		if p.Referer != nil {
			u.Referer = domain.Referer{
				Type:   normalizeEnum(p.Referer.Type),
				Object: p.Referer.Object,
			}
		}
	})
	if err != nil {
		return nil, notFound(err, ErrUploadNotFound)
	}
	return u, nil
}

// humanSize formats n bytes with binary units, e.g. 1536 -> "1.5 KiB".
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
