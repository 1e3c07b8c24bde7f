package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"circulation/internal/events"
	holdserrors "circulation/internal/holds/errors"
	"circulation/internal/holds/repository"
	"circulation/internal/holds/validator"
	"circulation/internal/policy"
	"circulation/pkg/clock"
	"circulation/pkg/config"
	"circulation/pkg/db"
	apperrors "circulation/pkg/errors"
	"circulation/pkg/model"
	"circulation/pkg/sanitizer"

	"github.com/google/uuid"
)

type ItemFinder interface {
	FindItem(ctx context.Context, ref model.ItemRef) (*model.Item, error)
}

type PatronResolver interface {
	ResolvePatron(ctx context.Context, patronID string) (*model.Patron, *model.PatronCategory, error)
	Thresholds() policy.Thresholds
}

type HoldQuery struct {
	Status   model.HoldStatus
	PatronID string
	ItemID   string
	Limit    int
	Offset   int64
}

type HoldService interface {
	Place(ctx context.Context, req *model.PlaceHoldRequest) (*model.Hold, error)
	Cancel(ctx context.Context, holdID string) (*model.Hold, error)
	UpdateStatus(ctx context.Context, holdID string, update *model.HoldStatusUpdate) (*model.Hold, error)
	List(ctx context.Context, query HoldQuery) ([]*model.Hold, int64, error)
	Queue(ctx context.Context, itemID string, limit int, offset int64) ([]*model.Hold, int64, error)
	HasOpenHolds(ctx context.Context, itemID string) (bool, error)
}

type Deps struct {
	Holds     repository.HoldRepository
	Items     ItemFinder
	Patrons   PatronResolver
	Tx        db.TransactionManager
	Publisher events.Publisher
	Clock     clock.Clock
	Validator *validator.HoldValidator
	Config    *config.Config
}

type holdService struct {
	repo      repository.HoldRepository
	items     ItemFinder
	patrons   PatronResolver
	tx        db.TransactionManager
	publisher events.Publisher
	clock     clock.Clock
	validator *validator.HoldValidator
	cfg       *config.Config
}

func NewHoldService(deps Deps) HoldService {
	return &holdService{
		repo:      deps.Holds,
		items:     deps.Items,
		patrons:   deps.Patrons,
		tx:        deps.Tx,
		publisher: deps.Publisher,
		clock:     deps.Clock,
		validator: deps.Validator,
		cfg:       deps.Config,
	}
}

// Place queues the patron for the item. A patron holds at most one open hold per item.
// Place also requires the item to exist and the patron to be active,
// so the queue never carries holds for unknown items or blocked patrons.
func (s *holdService) Place(ctx context.Context, req *model.PlaceHoldRequest) (*model.Hold, error) {
	req.PatronID = sanitizer.SanitizeID(req.PatronID)
	req.ItemID = sanitizer.SanitizeID(req.ItemID)
	req.Notes = sanitizer.SanitizeNotes(req.Notes)
	if err := s.validator.ValidatePlace(req); err != nil {
		return nil, s.validationError("Hold validation failed", err)
	}

	now := s.clock.Now()
	var hold *model.Hold

	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		hold = nil

		item, err := s.items.FindItem(ctx, model.ItemRef{ID: req.ItemID})
		if err != nil {
			return err
		}
		patron, _, err := s.patrons.ResolvePatron(ctx, req.PatronID)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindOpen(ctx, patron.ID, item.ID)
		switch {
		case err == nil:
			return duplicateHold(patron.ID, item.ID).WithDetails(map[string]any{"hold_id": existing.ID})
		case !errors.Is(err, holdserrors.ErrNotFound):
			return db.AsServiceError(err, "Failed to read open holds")
		}

		hold = &model.Hold{
			ID:         uuid.NewString(),
			PatronID:   patron.ID,
			ItemID:     item.ID,
			Status:     model.HoldPending,
			HoldDate:   now,
			ExpiryDate: now.Add(s.patrons.Thresholds().HoldExpiry),
			Notes:      req.Notes,
			UpdatedAt:  now,
		}
		if err := s.repo.Create(ctx, hold); err != nil {
			if errors.Is(err, db.ErrDuplicateKey) {
				return duplicateHold(patron.ID, item.ID)
			}
			return db.AsServiceError(err, "Failed to create hold")
		}
		return nil
	})
	if err != nil {
		err = db.AsServiceError(err, "Failed to place hold")
		s.logFailure("Hold rejected", err, "patron_id", req.PatronID, "item_id", req.ItemID)
		return nil, err
	}

	s.cfg.Log.Info("Hold placed",
		"hold_id", hold.ID,
		"patron_id", hold.PatronID,
		"item_id", hold.ItemID,
		"expiry_date", hold.ExpiryDate,
	)
	s.publish(ctx, holdEvent(events.HoldPlaced, hold, now))
	return hold, nil
}

// Cancel is idempotent for holds that are already cancelled.
func (s *holdService) Cancel(ctx context.Context, holdID string) (*model.Hold, error) {
	holdID = sanitizer.SanitizeID(holdID)
	if err := s.validator.ValidateHoldID(holdID); err != nil {
		return nil, s.validationError("Hold validation failed", err)
	}

	now := s.clock.Now()
	var (
		hold    *model.Hold
		changed bool
	)

	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		hold, changed = nil, false

		current, err := s.find(ctx, holdID)
		if err != nil {
			return err
		}

		switch current.Status {
		case model.HoldCancelled:
			hold = current
			return nil
		case model.HoldFulfilled, model.HoldExpired:
			return apperrors.ConflictWithReason(apperrors.ReasonHoldClosed, "Hold is already closed").
				WithDetails(map[string]any{"hold_id": current.ID, "status": string(current.Status)})
		}

		change := repository.StatusChange{From: current.Status, To: model.HoldCancelled, At: now}
		if err := s.applyChange(ctx, current, change); err != nil {
			return err
		}
		hold, changed = current, true
		return nil
	})
	if err != nil {
		err = db.AsServiceError(err, "Failed to cancel hold")
		s.logFailure("Hold cancellation rejected", err, "hold_id", holdID)
		return nil, err
	}

	if !changed {
		s.cfg.Log.Debug("Hold already cancelled", "hold_id", hold.ID)
		return hold, nil
	}

	s.cfg.Log.Info("Hold cancelled", "hold_id", hold.ID, "patron_id", hold.PatronID, "item_id", hold.ItemID)
	s.publish(ctx, holdEvent(events.HoldCancelled, hold, now))
	return hold, nil
}

// UpdateStatus is the administrative path. Any known status may be set, including moving a
// closed hold back to an open one.
func (s *holdService) UpdateStatus(ctx context.Context, holdID string, update *model.HoldStatusUpdate) (*model.Hold, error) {
	holdID = sanitizer.SanitizeID(holdID)
	if err := s.validator.ValidateHoldID(holdID); err != nil {
		return nil, s.validationError("Hold validation failed", err)
	}
	if update.Notes != nil {
		notes := sanitizer.SanitizeNotes(*update.Notes)
		update.Notes = &notes
	}
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		return nil, s.validationError("Hold update validation failed", err)
	}

	now := s.clock.Now()
	var (
		hold *model.Hold
		from model.HoldStatus
	)

	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		hold = nil

		current, err := s.find(ctx, holdID)
		if err != nil {
			return err
		}
		from = current.Status

		change := repository.StatusChange{From: current.Status, To: update.Status, Notes: update.Notes, At: now}
		if err := s.applyChange(ctx, current, change); err != nil {
			return err
		}
		hold = current
		return nil
	})
	if err != nil {
		err = db.AsServiceError(err, "Failed to update hold")
		s.logFailure("Hold update rejected", err, "hold_id", holdID, "status", string(update.Status))
		return nil, err
	}

	s.cfg.Log.Info("Hold status updated",
		"hold_id", hold.ID,
		"from", string(from),
		"to", string(hold.Status),
	)
	s.publish(ctx, holdEvent(events.HoldStatusChanged, hold, now))
	return hold, nil
}

func (s *holdService) List(ctx context.Context, query HoldQuery) ([]*model.Hold, int64, error) {
	if query.Status != "" && !query.Status.Valid() {
		return nil, 0, apperrors.InvalidField("status", "unknown hold status: "+string(query.Status))
	}
	filter := model.HoldFilter{
		Status:   query.Status,
		PatronID: sanitizer.SanitizeID(query.PatronID),
		ItemID:   sanitizer.SanitizeID(query.ItemID),
		Limit:    config.NormalizePaginationLimit(query.Limit),
		Offset:   config.NormalizeOffset(query.Offset),
	}

	var (
		holds             []*model.Hold
		total             int64
		errFind, errCount error
		wg                sync.WaitGroup
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		total, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count holds", "error", errCount)
			errCount = db.AsServiceError(errCount, "Failed to count holds")
		}
	}()

	go func() {
		defer wg.Done()
		holds, errFind = s.repo.Find(ctx, filter)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list holds", "error", errFind)
			errFind = db.AsServiceError(errFind, "Failed to retrieve holds")
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return holds, total, nil
}

// Queue lists the item's open holds in the order patrons placed them.
func (s *holdService) Queue(ctx context.Context, itemID string, limit int, offset int64) ([]*model.Hold, int64, error) {
	itemID = sanitizer.SanitizeID(itemID)
	item, err := s.items.FindItem(ctx, model.ItemRef{ID: itemID})
	if err != nil {
		return nil, 0, err
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	total, err := s.repo.CountOpenByItem(ctx, item.ID)
	if err != nil {
		return nil, 0, db.AsServiceError(err, "Failed to count hold queue")
	}
	holds, err := s.repo.Queue(ctx, item.ID, limit, offset)
	if err != nil {
		return nil, 0, db.AsServiceError(err, "Failed to read hold queue")
	}
	return holds, total, nil
}

func (s *holdService) HasOpenHolds(ctx context.Context, itemID string) (bool, error) {
	count, err := s.repo.CountOpenByItem(ctx, itemID)
	if err != nil {
		return false, db.AsServiceError(err, "Failed to count open holds")
	}
	return count > 0, nil
}

func (s *holdService) find(ctx context.Context, holdID string) (*model.Hold, error) {
	hold, err := s.repo.FindByID(ctx, holdID)
	if err != nil {
		if errors.Is(err, holdserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID(apperrors.ResourceHold, holdID)
		}
		return nil, db.AsServiceError(err, "Failed to read hold")
	}
	return hold, nil
}

// applyChange writes change and mirrors it onto hold.
func (s *holdService) applyChange(ctx context.Context, hold *model.Hold, change repository.StatusChange) error {
	if err := s.repo.UpdateStatus(ctx, hold.ID, change); err != nil {
		switch {
		case errors.Is(err, holdserrors.ErrGuardFailed):
			return apperrors.ConflictWithReason(apperrors.ReasonConcurrentUpdate, "Hold was changed by another request").
				WithDetails(map[string]any{"hold_id": hold.ID})
		case errors.Is(err, db.ErrDuplicateKey):
			return duplicateHold(hold.PatronID, hold.ItemID)
		}
		return db.AsServiceError(err, "Failed to update hold")
	}

	hold.Status = change.To
	hold.Open = change.To.IsOpen()
	hold.UpdatedAt = change.At
	if change.Notes != nil {
		hold.Notes = *change.Notes
	}
	return nil
}

func duplicateHold(patronID, itemID string) *apperrors.AppError {
	return apperrors.ConflictWithReason(apperrors.ReasonDuplicateHold, "Patron already has an open hold on the item").
		WithDetails(map[string]any{"patron_id": patronID, "item_id": itemID})
}

func (s *holdService) validationError(message string, err error) error {
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

func (s *holdService) logFailure(message string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	switch {
	case apperrors.IsCode(err, apperrors.CodeNotFound), apperrors.IsCode(err, apperrors.CodeConflict):
		s.cfg.Log.Warn(message, attrs...)
	default:
		s.cfg.Log.Error(message, attrs...)
	}
}

func (s *holdService) publish(ctx context.Context, evt events.Event) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.cfg.Log.Warn("Failed to publish hold event",
			"event_id", evt.ID,
			"event_type", evt.Type,
			"hold_id", evt.HoldID,
			"error", err,
		)
	}
}

func holdEvent(typ events.Type, hold *model.Hold, at time.Time) events.Event {
	evt := events.New(typ, at).WithPayload(hold)
	evt.PatronID = hold.PatronID
	evt.ItemID = hold.ItemID
	evt.HoldID = hold.ID
	return evt
}
