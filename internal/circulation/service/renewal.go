package service

import (
	"context"
	"errors"
	"time"

	circulationerrors "circulation/internal/circulation/errors"
	"circulation/internal/events"
	"circulation/pkg/db"
	apperrors "circulation/pkg/errors"
	"circulation/pkg/model"
	"circulation/pkg/sanitizer"
)

// Renew extends an active loan by one loan period counted from its current due date.
// The copy stays with the patron, so the ledger is not involved.
func (s *loanService) Renew(ctx context.Context, loanID string, operatorID string) (*model.Loan, error) {
	loanID = sanitizer.SanitizeID(loanID)
	operatorID = sanitizer.SanitizeID(operatorID)
	if err := s.validator.ValidateLoanID(loanID); err != nil {
		return nil, s.validationError("Renewal validation failed", err)
	}

	now := s.clock.Now()
	var renewed *model.Loan

	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		renewed = nil

		loan, err := s.loans.FindByID(ctx, loanID)
		if err != nil {
			if errors.Is(err, circulationerrors.ErrNotFound) {
				return apperrors.NotFoundWithID(apperrors.ResourceActiveLoan, loanID)
			}
			return db.AsServiceError(err, "Failed to read loan")
		}
		if !loan.IsActive() {
			return apperrors.NotFoundWithID(apperrors.ResourceActiveLoan, loanID)
		}

		category, err := s.policy.CategoryForPatron(ctx, loan.PatronID)
		if err != nil {
			return err
		}
		if !category.RenewalAllowed(loan.RenewedCount) {
			return apperrors.ConflictWithReason(apperrors.ReasonRenewalLimitReached, "Loan cannot be renewed again").
				WithDetails(map[string]any{
					"loan_id":       loan.ID,
					"renewed_count": loan.RenewedCount,
					"max_renewals":  category.MaxRenewals,
					"can_renew":     category.CanRenew,
				})
		}

		onHold, err := s.holds.HasOpenHolds(ctx, loan.ItemID)
		if err != nil {
			return db.AsServiceError(err, "Failed to check holds")
		}
		if onHold {
			return apperrors.ConflictWithReason(apperrors.ReasonItemOnHold, "Item has open holds").
				WithDetails(map[string]any{"loan_id": loan.ID, "item_id": loan.ItemID})
		}

		newDue := loan.DueDate.Add(time.Duration(category.LoanPeriodDays) * day)
		if err := s.loans.Renew(ctx, loan.ID, loan.RenewedCount, newDue); err != nil {
			if errors.Is(err, circulationerrors.ErrGuardFailed) {
				return apperrors.ConflictWithReason(apperrors.ReasonConcurrentUpdate, "Loan was changed by another request").
					WithDetails(map[string]any{"loan_id": loan.ID})
			}
			return db.AsServiceError(err, "Failed to renew loan")
		}

		loan.DueDate = newDue
		loan.RenewedCount++
		renewed = loan
		return nil
	})
	if err != nil {
		err = db.AsServiceError(err, "Failed to renew loan")
		s.logFailure("Renewal rejected", err, "loan_id", loanID, "operator_id", operatorID)
		return nil, err
	}

	s.cfg.Log.Info("Loan renewed",
		"loan_id", renewed.ID,
		"item_id", renewed.ItemID,
		"patron_id", renewed.PatronID,
		"due_date", renewed.DueDate,
		"renewed_count", renewed.RenewedCount,
	)

	evt := loanEvent(events.LoanRenewed, renewed, now)
	if operatorID != "" {
		evt.OperatorID = operatorID
	}
	s.publish(ctx, evt)
	return renewed, nil
}
