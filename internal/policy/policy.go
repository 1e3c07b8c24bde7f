// Package policy is the read-only source of circulation rules: the patron's category and
// the library-wide thresholds.
package policy

import (
	"context"
	"errors"
	"time"

	"circulation/internal/policy/repository"
	"circulation/pkg/config"
	"circulation/pkg/db"
	apperrors "circulation/pkg/errors"
	"circulation/pkg/model"
)

// Thresholds are the library-wide limits that do not depend on the patron category.
type Thresholds struct {
	MaxUnpaidFines model.Money
	HoldExpiry     time.Duration
}

type Store struct {
	repo repository.PolicyRepository
	cfg  *config.Config
}

func New(repo repository.PolicyRepository, cfg *config.Config) *Store {
	return &Store{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *Store) Thresholds() Thresholds {
	return Thresholds{
		MaxUnpaidFines: s.cfg.MaxUnpaidFines,
		HoldExpiry:     s.cfg.HoldExpiry(),
	}
}

// ResolvePatron returns an active patron with its category.
// A missing, suspended or expired patron is reported as NOT_FOUND(active_patron).
func (s *Store) ResolvePatron(ctx context.Context, patronID string) (*model.Patron, *model.PatronCategory, error) {
	patron, err := s.repo.FindPatron(ctx, patronID)
	if err != nil {
		if errors.Is(err, repository.ErrPatronNotFound) {
			return nil, nil, apperrors.NotFoundWithID(apperrors.ResourceActivePatron, patronID)
		}
		return nil, nil, db.AsServiceError(err, "Failed to read patron")
	}
	if !patron.IsActive() {
		return nil, nil, apperrors.NotFoundWithID(apperrors.ResourceActivePatron, patronID).
			WithDetails(map[string]any{"status": string(patron.Status)})
	}

	category, err := s.category(ctx, patron)
	if err != nil {
		return nil, nil, err
	}
	return patron, category, nil
}

// CategoryForPatron returns the category of a patron regardless of status. Callers use it
// for patrons that already hold loans, so a missing patron means broken references.
func (s *Store) CategoryForPatron(ctx context.Context, patronID string) (*model.PatronCategory, error) {
	patron, err := s.repo.FindPatron(ctx, patronID)
	if err != nil {
		if errors.Is(err, repository.ErrPatronNotFound) {
			return nil, apperrors.Internal("Loan references a missing patron", err).
				WithDetails(map[string]any{"patron_id": patronID})
		}
		return nil, db.AsServiceError(err, "Failed to read patron")
	}
	return s.category(ctx, patron)
}

// LockPatron must run inside the caller's unit of work.
func (s *Store) LockPatron(ctx context.Context, patronID string, now time.Time) error {
	if err := s.repo.LockPatron(ctx, patronID, now); err != nil {
		if errors.Is(err, repository.ErrPatronNotFound) {
			return apperrors.NotFoundWithID(apperrors.ResourceActivePatron, patronID)
		}
		return db.AsServiceError(err, "Failed to lock patron")
	}
	return nil
}

func (s *Store) category(ctx context.Context, patron *model.Patron) (*model.PatronCategory, error) {
	category, err := s.repo.FindCategory(ctx, patron.CategoryID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, apperrors.Internal("Patron references a missing category", err).
				WithDetails(map[string]any{"patron_id": patron.ID, "category_id": patron.CategoryID})
		}
		return nil, db.AsServiceError(err, "Failed to read patron category")
	}
	return category, nil
}
