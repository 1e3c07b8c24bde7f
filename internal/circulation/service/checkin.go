package service

import (
	"context"
	"errors"
	"time"

	circulationerrors "circulation/internal/circulation/errors"
	"circulation/internal/events"
	"circulation/internal/fines"
	"circulation/pkg/db"
	apperrors "circulation/pkg/errors"
	"circulation/pkg/model"
	"circulation/pkg/sanitizer"

	"github.com/google/uuid"
)

// CheckIn closes the most recent active loan of the item, returns the copy to the ledger and
// assesses a fine for a late return. A second check-in of the same item finds no active loan.
// Open holds on the item are left untouched.
func (s *loanService) CheckIn(ctx context.Context, req *model.CheckInRequest) (*model.CheckInResult, error) {
	sanitizeCheckIn(req)
	if err := s.validator.ValidateCheckIn(req); err != nil {
		return nil, s.validationError("Check-in validation failed", err)
	}

	now := s.clock.Now()
	var result *model.CheckInResult

	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		result = nil

		item, err := s.ledger.FindItem(ctx, req.ItemRef())
		if err != nil {
			return err
		}

		loan, err := s.loans.FindActiveByItem(ctx, item.ID)
		if err != nil {
			if errors.Is(err, circulationerrors.ErrNotFound) {
				return apperrors.NotFound(apperrors.ResourceActiveLoan).
					WithDetails(map[string]any{"item_id": item.ID})
			}
			return db.AsServiceError(err, "Failed to read active loan")
		}

		if err := s.loans.Close(ctx, loan.ID, now); err != nil {
			if errors.Is(err, circulationerrors.ErrGuardFailed) {
				return apperrors.NotFoundWithID(apperrors.ResourceActiveLoan, loan.ID)
			}
			return db.AsServiceError(err, "Failed to close loan")
		}
		loan.ReturnDate = &now

		if err := s.ledger.Release(ctx, item.ID); err != nil {
			return err
		}

		fine, err := s.assessFine(ctx, loan, now)
		if err != nil {
			return err
		}

		result = &model.CheckInResult{Loan: loan, Fine: fine}
		return nil
	})
	if err != nil {
		err = db.AsServiceError(err, "Failed to check in item")
		s.logFailure("Check-in rejected", err, "item", req.ItemRef().String())
		return nil, err
	}

	loan := result.Loan
	if req.OperatorID != "" {
		loan = withOperator(loan, req.OperatorID)
	}

	s.cfg.Log.Info("Item checked in",
		"loan_id", result.Loan.ID,
		"item_id", result.Loan.ItemID,
		"patron_id", result.Loan.PatronID,
		"fine_assessed", result.Fine != nil,
	)

	evts := []events.Event{loanEvent(events.LoanClosed, loan, now)}
	if result.Fine != nil {
		evt := events.New(events.FineAssessed, now).WithPayload(result.Fine)
		evt.OperatorID = req.OperatorID
		evt.PatronID = result.Fine.PatronID
		evt.ItemID = result.Loan.ItemID
		evt.LoanID = result.Fine.LoanID
		evt.FineID = result.Fine.ID
		evts = append(evts, evt)
	}
	s.publish(ctx, evts...)

	return result, nil
}

// assessFine inserts an unpaid fine when the loan was returned after its due date.
func (s *loanService) assessFine(ctx context.Context, loan *model.Loan, returnDate time.Time) (*model.Fine, error) {
	if !returnDate.After(loan.DueDate) {
		return nil, nil
	}

	category, err := s.policy.CategoryForPatron(ctx, loan.PatronID)
	if err != nil {
		return nil, err
	}

	assessment := fines.Assess(loan.DueDate, returnDate, category.FineRatePerDay)
	if assessment.Amount <= 0 {
		return nil, nil
	}

	fine := &model.Fine{
		ID:          uuid.NewString(),
		PatronID:    loan.PatronID,
		LoanID:      loan.ID,
		Amount:      assessment.Amount,
		AmountPaid:  0,
		DaysOverdue: assessment.DaysOverdue,
		Status:      model.FineUnpaid,
		CreatedAt:   returnDate,
	}
	if err := s.fines.Create(ctx, fine); err != nil {
		return nil, db.AsServiceError(err, "Failed to create fine")
	}
	return fine, nil
}

// withOperator copies the loan with the operator who received the return, for the event only.
func withOperator(loan *model.Loan, operatorID string) *model.Loan {
	l := *loan
	l.OperatorID = operatorID
	return &l
}

func sanitizeCheckIn(req *model.CheckInRequest) {
	req.ItemID = sanitizer.SanitizeID(req.ItemID)
	req.Barcode = sanitizer.SanitizeBarcode(req.Barcode)
	req.OperatorID = sanitizer.SanitizeID(req.OperatorID)
}
