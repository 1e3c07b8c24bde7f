package mongo

import (
	"context"
	"fmt"
	"time"

	"circulation/pkg/db"
	apperrors "circulation/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type mongoTransactionManager struct {
	client  *mongo.Client
	timeout time.Duration
}

// NewTransactionManager runs units of work as multi-document transactions. Requires a replica set.
func NewTransactionManager(client *mongo.Client, timeout time.Duration) db.TransactionManager {
	return &mongoTransactionManager{
		client:  client,
		timeout: timeout,
	}
}

// ExecuteTransaction passes the session context to fn as its ctx. fn may be retried by the
// driver on transient transaction errors, so it must not keep state across attempts.
func (m *mongoTransactionManager) ExecuteTransaction(ctx context.Context, fn db.TxFunc) error {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	session, err := m.client.StartSession()
	if err != nil {
		return TranslateError(fmt.Errorf("failed to start session: %w", err))
	}
	defer session.EndSession(ctx)

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	}, txOpts)

	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return TranslateError(fmt.Errorf("transaction failed: %w", err))
	}

	return nil
}
