package repository

import (
	"context"
	"fmt"

	"circulation/pkg/config"
	"circulation/pkg/db/postgres"
	"circulation/pkg/model"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresAuditRepository struct {
	cfg  *config.Config
	pool *pgxpool.Pool
}

func NewPostgresAuditRepository(cfg *config.Config) AuditRepository {
	return &postgresAuditRepository{
		cfg:  cfg,
		pool: cfg.Client.Postgres,
	}
}

func (r *postgresAuditRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	var payload any
	if entry.Payload != "" {
		payload = entry.Payload
	}

	query, args, err := postgres.Builder().
		Insert(TableName).
		Rows(goqu.Record{
			"event_id":       entry.EventID,
			"event_type":     entry.EventType,
			"source":         entry.Source,
			"correlation_id": entry.CorrelationID,
			"operator_id":    entry.OperatorID,
			"patron_id":      entry.PatronID,
			"item_id":        entry.ItemID,
			"loan_id":        entry.LoanID,
			"hold_id":        entry.HoldID,
			"fine_id":        entry.FineID,
			"occurred_at":    entry.OccurredAt,
			"recorded_at":    entry.RecordedAt,
			"payload":        payload,
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build audit insert: %w", err)
	}

	if _, err := postgres.Conn(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.TranslateError(fmt.Errorf("failed to append audit entry: %w", err))
	}
	return nil
}
