package service

import (
	"context"
	"errors"
	"time"

	"circulation/internal/circulation/repository"
	"circulation/internal/circulation/validator"
	"circulation/internal/events"
	finesrepository "circulation/internal/fines/repository"
	"circulation/internal/policy"
	"circulation/pkg/clock"
	"circulation/pkg/config"
	"circulation/pkg/db"
	apperrors "circulation/pkg/errors"
	"circulation/pkg/model"
)

// ItemLedger is the part of the Availability Ledger the managers use.
type ItemLedger interface {
	FindItem(ctx context.Context, ref model.ItemRef) (*model.Item, error)
	TryReserve(ctx context.Context, itemID string) error
	Release(ctx context.Context, itemID string) error
}

type PolicyStore interface {
	ResolvePatron(ctx context.Context, patronID string) (*model.Patron, *model.PatronCategory, error)
	CategoryForPatron(ctx context.Context, patronID string) (*model.PatronCategory, error)
	LockPatron(ctx context.Context, patronID string, now time.Time) error
	Thresholds() policy.Thresholds
}

type HoldChecker interface {
	HasOpenHolds(ctx context.Context, itemID string) (bool, error)
}

type LoanService interface {
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.Loan, error)
	CheckIn(ctx context.Context, req *model.CheckInRequest) (*model.CheckInResult, error)
	Renew(ctx context.Context, loanID string, operatorID string) (*model.Loan, error)
	ListLoans(ctx context.Context, query LoanQuery) ([]*model.Loan, int64, error)
	ListOverdue(ctx context.Context, limit int, offset int64) ([]*model.Loan, int64, error)
	ListFines(ctx context.Context, query FineQuery) ([]*model.Fine, int64, error)
}

type Deps struct {
	Loans     repository.LoanRepository
	Fines     finesrepository.FineRepository
	Ledger    ItemLedger
	Policy    PolicyStore
	Holds     HoldChecker
	Tx        db.TransactionManager
	Publisher events.Publisher
	Clock     clock.Clock
	Validator *validator.LoanValidator
	Config    *config.Config
}

type loanService struct {
	loans     repository.LoanRepository
	fines     finesrepository.FineRepository
	ledger    ItemLedger
	policy    PolicyStore
	holds     HoldChecker
	tx        db.TransactionManager
	publisher events.Publisher
	clock     clock.Clock
	validator *validator.LoanValidator
	cfg       *config.Config
}

func NewLoanService(deps Deps) LoanService {
	return &loanService{
		loans:     deps.Loans,
		fines:     deps.Fines,
		ledger:    deps.Ledger,
		policy:    deps.Policy,
		holds:     deps.Holds,
		tx:        deps.Tx,
		publisher: deps.Publisher,
		clock:     deps.Clock,
		validator: deps.Validator,
		cfg:       deps.Config,
	}
}

func (s *loanService) validationError(message string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		s.cfg.Log.Warn(message, "error", err)
		return apperrors.Validation(message, map[string]any{
			"field":  verrs[0].Field,
			"errors": verrs,
		})
	}
	return apperrors.Internal(message, err)
}

// logFailure logs business rejections at warn level and everything else at error level.
func (s *loanService) logFailure(message string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	appErr := apperrors.AsAppError(err)
	if appErr == nil {
		s.cfg.Log.Error(message, attrs...)
		return
	}
	switch appErr.Code {
	case apperrors.CodeNotFound, apperrors.CodeConflict, apperrors.CodeValidation, apperrors.CodeInvalidInput:
		s.cfg.Log.Warn(message, attrs...)
	case apperrors.CodeInvariantViolation:
		// already logged by the component that detected it
	default:
		s.cfg.Log.Error(message, attrs...)
	}
}

// publish runs after commit. A failed publish never undoes the committed change.
func (s *loanService) publish(ctx context.Context, evts ...events.Event) {
	for _, evt := range evts {
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.cfg.Log.Warn("Failed to publish circulation event",
				"event_id", evt.ID,
				"event_type", evt.Type,
				"loan_id", evt.LoanID,
				"error", err,
			)
		}
	}
}
