package events

import (
	"context"
	"errors"

	"circulation/internal/events/repository"
	"circulation/pkg/clock"
	"circulation/pkg/db"
	"circulation/pkg/kafka"
	"circulation/pkg/logger"
	"circulation/pkg/model"
)

// AuditHandler records consumed circulation events in the audit log.
type AuditHandler struct {
	repo  repository.AuditRepository
	clock clock.Clock
	log   *logger.Logger
}

func NewAuditHandler(repo repository.AuditRepository, clk clock.Clock, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		repo:  repo,
		clock: clk,
		log:   log,
	}
}

// Handle is a kafka.MessageHandler. Undecodable messages are permanent failures; store
// outages are transient so the consumer retries them.
func (h *AuditHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var evt Event
	if err := msg.DecodeValue(&evt); err != nil {
		return kafka.NewPermanentError("undecodable circulation event", err)
	}
	if evt.ID == "" || evt.Type == "" {
		return kafka.NewPermanentError("circulation event without id or type", nil)
	}

	source, _ := msg.GetHeader(kafka.HeaderSource)
	entry := &model.AuditEntry{
		EventID:       evt.ID,
		EventType:     string(evt.Type),
		Source:        source,
		CorrelationID: msg.GetCorrelationID(),
		OperatorID:    evt.OperatorID,
		PatronID:      evt.PatronID,
		ItemID:        evt.ItemID,
		LoanID:        evt.LoanID,
		HoldID:        evt.HoldID,
		FineID:        evt.FineID,
		OccurredAt:    evt.OccurredAt,
		RecordedAt:    h.clock.Now(),
		Payload:       string(evt.Payload),
	}

	if err := h.repo.Append(ctx, entry); err != nil {
		if errors.Is(err, db.ErrDuplicateKey) {
			h.log.Debug("Audit entry already recorded", "event_id", evt.ID)
			return nil
		}
		if db.IsUnavailable(err) {
			return kafka.NewTransientError("audit store unavailable", err)
		}
		return err
	}

	h.log.Info("Audit entry recorded",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"item_id", evt.ItemID,
		"patron_id", evt.PatronID,
	)
	return nil
}
