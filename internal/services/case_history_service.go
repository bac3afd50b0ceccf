// Package services – CaseHistoryService
//
// This file implements the timeline entries of a case. Every entry
// references a live case and a live assignee.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/repo"
)

// CaseHistoryInput is the data for a new entry.
type CaseHistoryInput struct {
	Description string
	Case        string
	AssignedTo  string
}

// CaseHistoryPatch holds optional entry changes.
type CaseHistoryPatch struct {
	Description *string
	Case        *string
	AssignedTo  *string
}

// CaseHistoryService manages case history entries.
type CaseHistoryService struct {
	DB *gorm.DB
}

// Get returns the live entry id.
func (s *CaseHistoryService) Get(ctx context.Context, id string) (*domain.CaseHistory, error) {
	h, err := repo.Get[domain.CaseHistory](ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrCaseHistoryNotFound)
	}
	return h, nil
}

// Create inserts an entry added by userID. The case is checked before the
// assignee, so a request naming neither yields ErrCaseNotFound.
func (s *CaseHistoryService) Create(ctx context.Context, userID string, in CaseHistoryInput) (*domain.CaseHistory, error) {
	if err := s.checkRefs(ctx, &in.Case, &in.AssignedTo); err != nil {
		return nil, err
	}
	h := &domain.CaseHistory{
		Description: in.Description,
		CaseID:      in.Case,
		AssignedTo:  in.AssignedTo,
		AddedBy:     userID,
	}
	if err := repo.Create(ctx, s.DB, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Update applies p to the live entry id, checking any new references.
func (s *CaseHistoryService) Update(ctx context.Context, id string, p CaseHistoryPatch) (*domain.CaseHistory, error) {
	if err := s.checkRefs(ctx, p.Case, p.AssignedTo); err != nil {
		return nil, err
	}
	h, err := repo.Update(ctx, s.DB, id, func(h *domain.CaseHistory) {
		setString(&h.Description, p.Description)
		setString(&h.CaseID, p.Case)
		setString(&h.AssignedTo, p.AssignedTo)
	})
	if err != nil {
		return nil, notFound(err, ErrCaseHistoryNotFound)
	}
	return h, nil
}

func (s *CaseHistoryService) checkRefs(ctx context.Context, caseID, userID *string) error {
	if caseID != nil {
		ok, err := repo.Exists[domain.Case](ctx, s.DB, *caseID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCaseNotFound
		}
	}
	if userID != nil {
		ok, err := repo.Exists[domain.User](ctx, s.DB, *userID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUserNotFound
		}
	}
	return nil
}
