// Package store builds the repositories and transaction manager for the configured driver.
package store

import (
	"fmt"

	loanRepository "circulation/internal/circulation/repository"
	auditRepository "circulation/internal/events/repository"
	fineRepository "circulation/internal/fines/repository"
	holdRepository "circulation/internal/holds/repository"
	itemRepository "circulation/internal/ledger/repository"
	policyRepository "circulation/internal/policy/repository"
	"circulation/pkg/config"
	"circulation/pkg/db"
	"circulation/pkg/db/memory"
	mongodb "circulation/pkg/db/mongo"
	"circulation/pkg/db/postgres"
)

type Repositories struct {
	Items  itemRepository.ItemRepository
	Policy policyRepository.PolicyRepository
	Loans  loanRepository.LoanRepository
	Holds  holdRepository.HoldRepository
	Fines  fineRepository.FineRepository
	Audit  auditRepository.AuditRepository
	Tx     db.TransactionManager

	// Memory is set only for the memory driver.
	Memory *memory.Store
}

// New expects cfg.Connect to have opened the handles the driver needs.
func New(cfg *config.Config) (*Repositories, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		if cfg.Client.Mongo == nil {
			return nil, fmt.Errorf("mongo client is not connected")
		}
		return &Repositories{
			Items:  itemRepository.NewMongoItemRepository(cfg),
			Policy: policyRepository.NewMongoPolicyRepository(cfg),
			Loans:  loanRepository.NewMongoLoanRepository(cfg),
			Holds:  holdRepository.NewMongoHoldRepository(cfg),
			Fines:  fineRepository.NewMongoFineRepository(cfg),
			Audit:  auditRepository.NewMongoAuditRepository(cfg),
			Tx:     mongodb.NewTransactionManager(cfg.Client.Mongo, cfg.TransactionTimeout),
		}, nil

	case config.StoreDriverPostgres:
		if cfg.Client.Postgres == nil {
			return nil, fmt.Errorf("postgres pool is not connected")
		}
		return &Repositories{
			Items:  itemRepository.NewPostgresItemRepository(cfg),
			Policy: policyRepository.NewPostgresPolicyRepository(cfg),
			Loans:  loanRepository.NewPostgresLoanRepository(cfg),
			Holds:  holdRepository.NewPostgresHoldRepository(cfg),
			Fines:  fineRepository.NewPostgresFineRepository(cfg),
			Audit:  auditRepository.NewPostgresAuditRepository(cfg),
			Tx:     postgres.NewTransactionManager(cfg.Client.Postgres, cfg.TransactionTimeout),
		}, nil

	case config.StoreDriverMemory:
		return NewMemory(memory.NewStore()), nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

func NewMemory(s *memory.Store) *Repositories {
	return &Repositories{
		Items:  itemRepository.NewMemoryItemRepository(s),
		Policy: policyRepository.NewMemoryPolicyRepository(s),
		Loans:  loanRepository.NewMemoryLoanRepository(s),
		Holds:  holdRepository.NewMemoryHoldRepository(s),
		Fines:  fineRepository.NewMemoryFineRepository(s),
		Audit:  auditRepository.NewMemoryAuditRepository(s),
		Tx:     memory.NewTransactionManager(s),
		Memory: s,
	}
}
