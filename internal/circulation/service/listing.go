package service

import (
	"context"
	"sync"

	"circulation/pkg/config"
	"circulation/pkg/db"
	apperrors "circulation/pkg/errors"
	"circulation/pkg/model"
	"circulation/pkg/sanitizer"
)

// LoanQuery selects loans for the history and active-loan listings.
type LoanQuery struct {
	PatronID   string
	ItemID     string
	ActiveOnly bool
	Limit      int
	Offset     int64
}

type FineQuery struct {
	PatronID string
	Status   model.FineStatus
	Limit    int
	Offset   int64
}

func (s *loanService) ListLoans(ctx context.Context, query LoanQuery) ([]*model.Loan, int64, error) {
	filter := model.LoanFilter{
		PatronID:   sanitizer.SanitizeID(query.PatronID),
		ItemID:     sanitizer.SanitizeID(query.ItemID),
		ActiveOnly: query.ActiveOnly,
		Limit:      config.NormalizePaginationLimit(query.Limit),
		Offset:     config.NormalizeOffset(query.Offset),
	}
	return listConcurrently(ctx, s, "loans", filter, s.loans.Find, s.loans.Count)
}

// ListOverdue returns active loans past their due date, most overdue first.
func (s *loanService) ListOverdue(ctx context.Context, limit int, offset int64) ([]*model.Loan, int64, error) {
	now := s.clock.Now()
	filter := model.LoanFilter{
		OverdueAsOf: &now,
		Limit:       config.NormalizePaginationLimit(limit),
		Offset:      config.NormalizeOffset(offset),
	}
	return listConcurrently(ctx, s, "overdue loans", filter, s.loans.Find, s.loans.Count)
}

func (s *loanService) ListFines(ctx context.Context, query FineQuery) ([]*model.Fine, int64, error) {
	if query.Status != "" && !query.Status.Valid() {
		return nil, 0, apperrors.InvalidField("status", "unknown fine status: "+string(query.Status))
	}
	filter := model.FineFilter{
		PatronID: sanitizer.SanitizeID(query.PatronID),
		Status:   query.Status,
		Limit:    config.NormalizePaginationLimit(query.Limit),
		Offset:   config.NormalizeOffset(query.Offset),
	}
	return listConcurrently(ctx, s, "fines", filter, s.fines.Find, s.fines.Count)
}

// listConcurrently runs the page query and the count side by side.
func listConcurrently[F any, T any](
	ctx context.Context,
	s *loanService,
	what string,
	filter F,
	find func(context.Context, F) ([]*T, error),
	count func(context.Context, F) (int64, error),
) ([]*T, int64, error) {
	var (
		rows              []*T
		total             int64
		errFind, errCount error
		wg                sync.WaitGroup
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		total, errCount = count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count "+what, "error", errCount)
			errCount = db.AsServiceError(errCount, "Failed to count "+what)
		}
	}()

	go func() {
		defer wg.Done()
		rows, errFind = find(ctx, filter)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list "+what, "error", errFind)
			errFind = db.AsServiceError(errFind, "Failed to retrieve "+what)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return rows, total, nil
}
