// Package memory is a process-local store used by tests and single-node development runs.
//
// Transactions are serialized by one mutex and roll back by restoring a snapshot of
// every table taken when the transaction began. Waiting for the mutex does not watch the
// caller's context; transactions here never do I/O, so the wait is bounded by the
// in-process work of the transaction ahead. Cancellation is checked once the lock is held.
package memory

import (
	"context"
	"maps"
	"sync"

	"circulation/pkg/db"
	"circulation/pkg/model"
)

// Tables is the full state of the store. Rows are stored by value so a snapshot is a map copy.
type Tables struct {
	Items      map[string]model.Item
	Patrons    map[string]model.Patron
	Categories map[string]model.PatronCategory
	Loans      map[string]model.Loan
	Holds      map[string]model.Hold
	Fines      map[string]model.Fine
	Audit      map[string]model.AuditEntry
}

func newTables() *Tables {
	return &Tables{
		Items:      map[string]model.Item{},
		Patrons:    map[string]model.Patron{},
		Categories: map[string]model.PatronCategory{},
		Loans:      map[string]model.Loan{},
		Holds:      map[string]model.Hold{},
		Fines:      map[string]model.Fine{},
		Audit:      map[string]model.AuditEntry{},
	}
}

func (t *Tables) clone() *Tables {
	return &Tables{
		Items:      maps.Clone(t.Items),
		Patrons:    maps.Clone(t.Patrons),
		Categories: maps.Clone(t.Categories),
		Loans:      maps.Clone(t.Loans),
		Holds:      maps.Clone(t.Holds),
		Fines:      maps.Clone(t.Fines),
		Audit:      maps.Clone(t.Audit),
	}
}

type Store struct {
	mu     sync.RWMutex
	tables *Tables
}

func NewStore() *Store {
	return &Store{tables: newTables()}
}

type txKey struct{}

func inTx(ctx context.Context, s *Store) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// View runs fn against the tables for reading. Inside a transaction the lock is already held.
func (s *Store) View(ctx context.Context, fn func(t *Tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if inTx(ctx, s) {
		return fn(s.tables)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.tables)
}

// Update runs fn with exclusive access. Outside a transaction fn is its own atomic unit.
func (s *Store) Update(ctx context.Context, fn func(t *Tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if inTx(ctx, s) {
		return fn(s.tables)
	}
	return s.ExecuteTransaction(ctx, func(ctx context.Context) error {
		return fn(s.tables)
	})
}

type transactionManager struct {
	store *Store
}

func NewTransactionManager(store *Store) db.TransactionManager {
	return &transactionManager{store: store}
}

func (m *transactionManager) ExecuteTransaction(ctx context.Context, fn db.TxFunc) error {
	return m.store.ExecuteTransaction(ctx, fn)
}

func (s *Store) ExecuteTransaction(ctx context.Context, fn db.TxFunc) error {
	if inTx(ctx, s) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.tables.clone()
	err := fn(context.WithValue(ctx, txKey{}, s))
	if err == nil {
		// a cancelled caller never observes a partial commit
		err = ctx.Err()
	}
	if err != nil {
		s.tables = snapshot
		return err
	}
	return nil
}

// Seed inserts reference data. It is meant for tests and local bootstrapping.
func (s *Store) Seed(fn func(t *Tables)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.tables)
}

// Snapshot returns a copy of the current tables for assertions.
func (s *Store) Snapshot() *Tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables.clone()
}
