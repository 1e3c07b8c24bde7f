package service

import (
	"context"
	"time"

	"circulation/internal/events"
	"circulation/pkg/db"
	apperrors "circulation/pkg/errors"
	"circulation/pkg/model"
	"circulation/pkg/sanitizer"

	"github.com/google/uuid"
)

const day = 24 * time.Hour

// Checkout lends one copy of an item to an active patron. Every precondition is checked
// inside the unit of work, in order, and the first failure is returned with nothing written.
func (s *loanService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.Loan, error) {
	sanitizeCheckout(req)
	if err := s.validator.ValidateCheckout(req); err != nil {
		return nil, s.validationError("Checkout validation failed", err)
	}

	now := s.clock.Now()
	var loan *model.Loan

	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		loan = nil

		item, err := s.ledger.FindItem(ctx, req.ItemRef())
		if err != nil {
			return err
		}

		patron, category, err := s.policy.ResolvePatron(ctx, req.PatronID)
		if err != nil {
			return err
		}

		if item.AvailableCopies < 1 {
			return apperrors.ConflictWithReason(apperrors.ReasonUnavailable, "No copies of the item are available").
				WithDetails(map[string]any{"item_id": item.ID})
		}

		if err := s.policy.LockPatron(ctx, patron.ID, now); err != nil {
			return err
		}
		if err := s.checkBorrowingLimit(ctx, patron, category); err != nil {
			return err
		}
		if err := s.checkOutstandingFines(ctx, patron); err != nil {
			return err
		}

		if err := s.ledger.TryReserve(ctx, item.ID); err != nil {
			return err
		}

		loan = &model.Loan{
			ID:           uuid.NewString(),
			PatronID:     patron.ID,
			ItemID:       item.ID,
			CheckoutDate: now,
			DueDate:      now.Add(time.Duration(category.LoanPeriodDays) * day),
			RenewedCount: 0,
			OperatorID:   req.OperatorID,
		}
		if err := s.loans.Create(ctx, loan); err != nil {
			return db.AsServiceError(err, "Failed to create loan")
		}
		return nil
	})
	if err != nil {
		err = db.AsServiceError(err, "Failed to check out item")
		s.logFailure("Checkout rejected", err,
			"patron_id", req.PatronID,
			"item", req.ItemRef().String(),
			"operator_id", req.OperatorID,
		)
		return nil, err
	}

	s.cfg.Log.Info("Item checked out",
		"loan_id", loan.ID,
		"item_id", loan.ItemID,
		"patron_id", loan.PatronID,
		"due_date", loan.DueDate,
		"operator_id", loan.OperatorID,
	)

	s.publish(ctx, loanEvent(events.LoanCreated, loan, now))
	return loan, nil
}

func (s *loanService) checkBorrowingLimit(ctx context.Context, patron *model.Patron, category *model.PatronCategory) error {
	active, err := s.loans.CountActiveByPatron(ctx, patron.ID)
	if err != nil {
		return db.AsServiceError(err, "Failed to count active loans")
	}
	if active >= int64(category.BorrowingLimit) {
		return apperrors.ConflictWithReason(apperrors.ReasonBorrowingLimitReached, "Patron has reached the borrowing limit").
			WithDetails(map[string]any{
				"patron_id":       patron.ID,
				"active_loans":    active,
				"borrowing_limit": category.BorrowingLimit,
			})
	}
	return nil
}

func (s *loanService) checkOutstandingFines(ctx context.Context, patron *model.Patron) error {
	outstanding, err := s.fines.SumOutstanding(ctx, patron.ID)
	if err != nil {
		return db.AsServiceError(err, "Failed to sum outstanding fines")
	}
	threshold := s.policy.Thresholds().MaxUnpaidFines
	if outstanding > threshold {
		return apperrors.ConflictWithReason(apperrors.ReasonOutstandingFines, "Patron has too many unpaid fines").
			WithDetails(map[string]any{
				"patron_id":   patron.ID,
				"outstanding": outstanding.String(),
				"threshold":   threshold.String(),
			})
	}
	return nil
}

func sanitizeCheckout(req *model.CheckoutRequest) {
	req.PatronID = sanitizer.SanitizeID(req.PatronID)
	req.ItemID = sanitizer.SanitizeID(req.ItemID)
	req.Barcode = sanitizer.SanitizeBarcode(req.Barcode)
	req.OperatorID = sanitizer.SanitizeID(req.OperatorID)
}

func loanEvent(typ events.Type, loan *model.Loan, at time.Time) events.Event {
	evt := events.New(typ, at).WithPayload(loan)
	evt.OperatorID = loan.OperatorID
	evt.PatronID = loan.PatronID
	evt.ItemID = loan.ItemID
	evt.LoanID = loan.ID
	return evt
}
