package repository

import (
	"context"

	"circulation/pkg/model"
)

const (
	CollectionName = "AuditLog"
	TableName      = "audit_log"
)

// AuditRepository appends audit entries. Append returns db.ErrDuplicateKey when the event
// was already recorded.
type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
}
