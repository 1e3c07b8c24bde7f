// Package server assembles the circulation managers and their HTTP handlers over one set of
// repositories.
package server

import (
	loanHandler "circulation/internal/circulation/handler"
	loanService "circulation/internal/circulation/service"
	loanValidator "circulation/internal/circulation/validator"
	"circulation/internal/events"
	holdHandler "circulation/internal/holds/handler"
	holdService "circulation/internal/holds/service"
	holdValidator "circulation/internal/holds/validator"
	"circulation/internal/ledger"
	"circulation/internal/policy"
	"circulation/internal/store"
	"circulation/pkg/clock"
	"circulation/pkg/config"
	"circulation/pkg/contracts"
)

type Services struct {
	Loans  loanService.LoanService
	Holds  holdService.HoldService
	Ledger *ledger.Ledger
	Policy *policy.Store

	cfg *config.Config
}

func NewServices(cfg *config.Config, repos *store.Repositories, publisher events.Publisher, clk clock.Clock) *Services {
	itemLedger := ledger.New(repos.Items, cfg.Log)
	policyStore := policy.New(repos.Policy, cfg)

	holds := holdService.NewHoldService(holdService.Deps{
		Holds:     repos.Holds,
		Items:     itemLedger,
		Patrons:   policyStore,
		Tx:        repos.Tx,
		Publisher: publisher,
		Clock:     clk,
		Validator: holdValidator.NewHoldValidator(cfg.Log),
		Config:    cfg,
	})

	loans := loanService.NewLoanService(loanService.Deps{
		Loans:     repos.Loans,
		Fines:     repos.Fines,
		Ledger:    itemLedger,
		Policy:    policyStore,
		Holds:     holds,
		Tx:        repos.Tx,
		Publisher: publisher,
		Clock:     clk,
		Validator: loanValidator.NewLoanValidator(cfg.Log),
		Config:    cfg,
	})

	cfg.Log.Info("Circulation services initialized", "store_driver", cfg.StoreDriver)
	return &Services{
		Loans:  loans,
		Holds:  holds,
		Ledger: itemLedger,
		Policy: policyStore,
		cfg:    cfg,
	}
}

func (s *Services) Handlers() []contracts.Handler {
	return []contracts.Handler{
		loanHandler.NewLoanHandler(s.Loans, s.cfg.Log),
		holdHandler.NewHoldHandler(s.Holds, s.cfg.Log),
	}
}
