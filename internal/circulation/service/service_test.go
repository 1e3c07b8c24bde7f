package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"circulation/internal/circulation/repository"
	"circulation/internal/circulation/service"
	"circulation/internal/circulation/validator"
	"circulation/internal/events"
	finesrepository "circulation/internal/fines/repository"
	holdsrepository "circulation/internal/holds/repository"
	holdsservice "circulation/internal/holds/service"
	holdsvalidator "circulation/internal/holds/validator"
	"circulation/internal/ledger"
	ledgerrepository "circulation/internal/ledger/repository"
	"circulation/internal/policy"
	policyrepository "circulation/internal/policy/repository"
	"circulation/pkg/clock"
	"circulation/pkg/config"
	"circulation/pkg/db"
	"circulation/pkg/db/memory"
	apperrors "circulation/pkg/errors"
	"circulation/pkg/logger"
	"circulation/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var d0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

const (
	patronP  = "patron-p"
	patronQ  = "patron-q"
	itemI    = "item-i"
	barcodeI = "BC-0001"
	operator = "desk-1"
	day      = 24 * time.Hour
)

type fixture struct {
	store     *memory.Store
	clock     *clock.Manual
	published *events.Recorder
	loans     service.LoanService
	holds     holdsservice.HoldService
}

func newFixture(t *testing.T, seed ...func(*memory.Tables)) *fixture {
	t.Helper()
	return newFixtureWithDeps(t, nil, seed...)
}

// newFixtureWithDeps lets a test swap loan service collaborators before the service is built.
func newFixtureWithDeps(t *testing.T, override func(*service.Deps), seed ...func(*memory.Tables)) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.Seed(func(tables *memory.Tables) {
		tables.Categories["adult"] = model.PatronCategory{
			ID:             "adult",
			Name:           "Adult",
			LoanPeriodDays: 14,
			BorrowingLimit: 5,
			CanRenew:       true,
			MaxRenewals:    2,
			FineRatePerDay: model.Units(10),
		}
		tables.Patrons[patronP] = model.Patron{ID: patronP, Status: model.PatronActive, CategoryID: "adult"}
		tables.Patrons[patronQ] = model.Patron{ID: patronQ, Status: model.PatronActive, CategoryID: "adult"}
		tables.Items[itemI] = model.Item{ID: itemI, Barcode: barcodeI, TotalCopies: 1, AvailableCopies: 1}
		for _, fn := range seed {
			fn(tables)
		}
	})

	log := logger.Discard()
	cfg := &config.Config{
		Log:            log,
		MaxUnpaidFines: model.Units(100),
		HoldExpiryDays: 7,
	}

	manual := clock.NewManual(d0)
	recorder := events.NewRecorder()
	tx := memory.NewTransactionManager(store)
	itemLedger := ledger.New(ledgerrepository.NewMemoryItemRepository(store), log)
	policyStore := policy.New(policyrepository.NewMemoryPolicyRepository(store), cfg)

	holds := holdsservice.NewHoldService(holdsservice.Deps{
		Holds:     holdsrepository.NewMemoryHoldRepository(store),
		Items:     itemLedger,
		Patrons:   policyStore,
		Tx:        tx,
		Publisher: recorder,
		Clock:     manual,
		Validator: holdsvalidator.NewHoldValidator(log),
		Config:    cfg,
	})

	deps := service.Deps{
		Loans:     repository.NewMemoryLoanRepository(store),
		Fines:     finesrepository.NewMemoryFineRepository(store),
		Ledger:    itemLedger,
		Policy:    policyStore,
		Holds:     holds,
		Tx:        tx,
		Publisher: recorder,
		Clock:     manual,
		Validator: validator.NewLoanValidator(log),
		Config:    cfg,
	}
	if override != nil {
		override(&deps)
	}
	loans := service.NewLoanService(deps)

	return &fixture{
		store:     store,
		clock:     manual,
		published: recorder,
		loans:     loans,
		holds:     holds,
	}
}

func (f *fixture) checkout(t *testing.T, patronID, itemID string) *model.Loan {
	t.Helper()
	loan, err := f.loans.Checkout(context.Background(), &model.CheckoutRequest{
		PatronID:   patronID,
		ItemID:     itemID,
		OperatorID: operator,
	})
	require.NoError(t, err)
	return loan
}

func (f *fixture) available(itemID string) int {
	return f.store.Snapshot().Items[itemID].AvailableCopies
}

func activeLoans(tables *memory.Tables, itemID string) int {
	n := 0
	for _, loan := range tables.Loans {
		if loan.ItemID == itemID && loan.IsActive() {
			n++
		}
	}
	return n
}

func assertCopiesBalanced(t *testing.T, store *memory.Store) {
	t.Helper()
	tables := store.Snapshot()
	for id, item := range tables.Items {
		assert.Equal(t, item.TotalCopies, item.AvailableCopies+activeLoans(tables, id), "item %s", id)
		assert.GreaterOrEqual(t, item.AvailableCopies, 0, "item %s", id)
	}
}

func Test_Checkout_CreatesLoanAndTakesCopy(t *testing.T) {
	f := newFixture(t)

	loan := f.checkout(t, patronP, itemI)

	assert.Equal(t, d0, loan.CheckoutDate)
	assert.Equal(t, d0.Add(14*day), loan.DueDate)
	assert.Equal(t, 0, loan.RenewedCount)
	assert.Equal(t, operator, loan.OperatorID)
	assert.Nil(t, loan.ReturnDate)
	assert.Equal(t, 0, f.available(itemI))
	assert.Equal(t, []events.Type{events.LoanCreated}, f.published.Types())
	assertCopiesBalanced(t, f.store)
}

func Test_Checkout_ByBarcode(t *testing.T) {
	f := newFixture(t)

	loan, err := f.loans.Checkout(context.Background(), &model.CheckoutRequest{
		PatronID:   " " + patronP + " ",
		Barcode:    "BC-0001\n",
		OperatorID: operator,
	})

	require.NoError(t, err)
	assert.Equal(t, itemI, loan.ItemID)
	assert.Equal(t, patronP, loan.PatronID)
}

func Test_CheckIn_LateReturnAssessesFine(t *testing.T) {
	f := newFixture(t)
	loan := f.checkout(t, patronP, itemI)

	f.clock.Set(d0.Add(20 * day))
	result, err := f.loans.CheckIn(context.Background(), &model.CheckInRequest{ItemID: itemI, OperatorID: operator})

	require.NoError(t, err)
	assert.Equal(t, loan.ID, result.Loan.ID)
	require.NotNil(t, result.Loan.ReturnDate)
	assert.Equal(t, d0.Add(20*day), *result.Loan.ReturnDate)
	assert.Equal(t, 1, f.available(itemI))

	require.NotNil(t, result.Fine)
	assert.Equal(t, 6, result.Fine.DaysOverdue)
	assert.Equal(t, model.Units(60), result.Fine.Amount)
	assert.Equal(t, model.Money(0), result.Fine.AmountPaid)
	assert.Equal(t, model.FineUnpaid, result.Fine.Status)
	assert.Equal(t, loan.ID, result.Fine.LoanID)
	assert.Len(t, f.store.Snapshot().Fines, 1)

	assert.Equal(t, []events.Type{events.LoanCreated, events.LoanClosed, events.FineAssessed}, f.published.Types())
	assertCopiesBalanced(t, f.store)
}

func Test_CheckIn_OnTimeHasNoFine(t *testing.T) {
	f := newFixture(t)
	f.checkout(t, patronP, itemI)

	f.clock.Set(d0.Add(14 * day))
	result, err := f.loans.CheckIn(context.Background(), &model.CheckInRequest{Barcode: barcodeI})

	require.NoError(t, err)
	assert.Nil(t, result.Fine)
	assert.Empty(t, f.store.Snapshot().Fines)
	assert.Equal(t, []events.Type{events.LoanCreated, events.LoanClosed}, f.published.Types())
}

func Test_CheckIn_PartialDayCountsAsFullDay(t *testing.T) {
	f := newFixture(t)
	f.checkout(t, patronP, itemI)

	f.clock.Set(d0.Add(14*day + time.Minute))
	result, err := f.loans.CheckIn(context.Background(), &model.CheckInRequest{ItemID: itemI})

	require.NoError(t, err)
	require.NotNil(t, result.Fine)
	assert.Equal(t, 1, result.Fine.DaysOverdue)
	assert.Equal(t, model.Units(10), result.Fine.Amount)
}

func Test_CheckIn_SecondCallFindsNoActiveLoan(t *testing.T) {
	f := newFixture(t)
	f.checkout(t, patronP, itemI)
	f.clock.Set(d0.Add(20 * day))

	_, err := f.loans.CheckIn(context.Background(), &model.CheckInRequest{ItemID: itemI})
	require.NoError(t, err)
	before := f.store.Snapshot()

	_, err = f.loans.CheckIn(context.Background(), &model.CheckInRequest{ItemID: itemI})

	assert.True(t, apperrors.IsNotFoundResource(err, apperrors.ResourceActiveLoan), "got %v", err)
	assert.Equal(t, before, f.store.Snapshot())
}

func Test_CheckIn_LeavesHoldsUntouched(t *testing.T) {
	f := newFixture(t)
	f.checkout(t, patronP, itemI)
	hold, err := f.holds.Place(context.Background(), &model.PlaceHoldRequest{PatronID: patronQ, ItemID: itemI})
	require.NoError(t, err)

	_, err = f.loans.CheckIn(context.Background(), &model.CheckInRequest{ItemID: itemI})
	require.NoError(t, err)

	assert.Equal(t, model.HoldPending, f.store.Snapshot().Holds[hold.ID].Status)
}

func Test_Renew_ExtendsFromCurrentDueDate(t *testing.T) {
	f := newFixture(t)
	loan := f.checkout(t, patronP, itemI)

	f.clock.Set(d0.Add(5 * day))
	renewed, err := f.loans.Renew(context.Background(), loan.ID, operator)

	require.NoError(t, err)
	assert.Equal(t, d0.Add(28*day), renewed.DueDate)
	assert.Equal(t, 1, renewed.RenewedCount)
	assert.Equal(t, 0, f.available(itemI))
	assert.Equal(t, []events.Type{events.LoanCreated, events.LoanRenewed}, f.published.Types())
}

func Test_Renew_DueDatesIncreaseUntilLimit(t *testing.T) {
	f := newFixture(t)
	loan := f.checkout(t, patronP, itemI)

	due := loan.DueDate
	for i := 1; i <= 2; i++ {
		renewed, err := f.loans.Renew(context.Background(), loan.ID, operator)
		require.NoError(t, err)
		assert.True(t, renewed.DueDate.After(due))
		assert.Equal(t, i, renewed.RenewedCount)
		due = renewed.DueDate
	}

	_, err := f.loans.Renew(context.Background(), loan.ID, operator)

	assert.True(t, apperrors.IsConflictReason(err, apperrors.ReasonRenewalLimitReached), "got %v", err)
	assert.Equal(t, due, f.store.Snapshot().Loans[loan.ID].DueDate)
}

func Test_Renew_CategoryWithoutRenewals(t *testing.T) {
	f := newFixture(t, func(tables *memory.Tables) {
		tables.Categories["child"] = model.PatronCategory{ID: "child", LoanPeriodDays: 7, BorrowingLimit: 2, CanRenew: false, MaxRenewals: 3}
		tables.Patrons["kid"] = model.Patron{ID: "kid", Status: model.PatronActive, CategoryID: "child"}
	})
	loan := f.checkout(t, "kid", itemI)

	_, err := f.loans.Renew(context.Background(), loan.ID, operator)

	assert.True(t, apperrors.IsConflictReason(err, apperrors.ReasonRenewalLimitReached), "got %v", err)
}

func Test_Renew_BlockedByPendingHold(t *testing.T) {
	f := newFixture(t)
	loan := f.checkout(t, patronP, itemI)
	_, err := f.holds.Place(context.Background(), &model.PlaceHoldRequest{PatronID: patronQ, ItemID: itemI})
	require.NoError(t, err)

	_, err = f.loans.Renew(context.Background(), loan.ID, operator)

	assert.True(t, apperrors.IsConflictReason(err, apperrors.ReasonItemOnHold), "got %v", err)
	stored := f.store.Snapshot().Loans[loan.ID]
	assert.Equal(t, 0, stored.RenewedCount)
	assert.Equal(t, loan.DueDate, stored.DueDate)
}

func Test_Renew_ClosedOrMissingLoan(t *testing.T) {
	f := newFixture(t)
	loan := f.checkout(t, patronP, itemI)
	_, err := f.loans.CheckIn(context.Background(), &model.CheckInRequest{ItemID: itemI})
	require.NoError(t, err)

	for _, id := range []string{loan.ID, "no-such-loan"} {
		_, err := f.loans.Renew(context.Background(), id, operator)
		assert.True(t, apperrors.IsNotFoundResource(err, apperrors.ResourceActiveLoan), "%s: got %v", id, err)
	}
}

func Test_Checkout_OutstandingFinesAboveThreshold(t *testing.T) {
	f := newFixture(t, func(tables *memory.Tables) {
		tables.Fines["f1"] = model.Fine{ID: "f1", PatronID: patronP, Amount: model.Units(100), Status: model.FineUnpaid}
		tables.Fines["f2"] = model.Fine{ID: "f2", PatronID: patronP, Amount: model.Units(80), AmountPaid: model.Units(30), Status: model.FinePartial}
		tables.Fines["f3"] = model.Fine{ID: "f3", PatronID: patronP, Amount: model.Units(500), Status: model.FineWaived}
	})

	_, err := f.loans.Checkout(context.Background(), &model.CheckoutRequest{PatronID: patronP, ItemID: itemI, OperatorID: operator})

	assert.True(t, apperrors.IsConflictReason(err, apperrors.ReasonOutstandingFines), "got %v", err)
	assert.Empty(t, f.store.Snapshot().Loans)
	assert.Equal(t, 1, f.available(itemI))
	assert.Empty(t, f.published.Events())
}

func Test_Checkout_OutstandingFinesAtThresholdAllowed(t *testing.T) {
	f := newFixture(t, func(tables *memory.Tables) {
		tables.Fines["f1"] = model.Fine{ID: "f1", PatronID: patronP, Amount: model.Units(100), Status: model.FineUnpaid}
	})

	f.checkout(t, patronP, itemI)
}

func Test_Checkout_BorrowingLimit(t *testing.T) {
	f := newFixture(t, func(tables *memory.Tables) {
		for i := range 6 {
			id := fmt.Sprintf("item-%d", i)
			tables.Items[id] = model.Item{ID: id, Barcode: "BC-X" + id, TotalCopies: 1, AvailableCopies: 1}
		}
	})
	for i := range 5 {
		f.checkout(t, patronP, fmt.Sprintf("item-%d", i))
	}

	_, err := f.loans.Checkout(context.Background(), &model.CheckoutRequest{PatronID: patronP, ItemID: "item-5", OperatorID: operator})

	assert.True(t, apperrors.IsConflictReason(err, apperrors.ReasonBorrowingLimitReached), "got %v", err)
	assert.Equal(t, 1, f.available("item-5"))
}

func Test_Checkout_PreconditionOrder(t *testing.T) {
	tests := []struct {
		name  string
		req   model.CheckoutRequest
		seed  func(*memory.Tables)
		check func(error) bool
	}{
		{
			name:  "missing item wins over missing patron",
			req:   model.CheckoutRequest{PatronID: "ghost", ItemID: "no-item", OperatorID: operator},
			check: func(err error) bool { return apperrors.IsNotFoundResource(err, apperrors.ResourceItem) },
		},
		{
			name: "inactive patron wins over unavailable item",
			req:  model.CheckoutRequest{PatronID: "suspended", ItemID: itemI, OperatorID: operator},
			seed: func(tables *memory.Tables) {
				tables.Patrons["suspended"] = model.Patron{ID: "suspended", Status: model.PatronSuspended, CategoryID: "adult"}
				item := tables.Items[itemI]
				item.AvailableCopies = 0
				tables.Items[itemI] = item
			},
			check: func(err error) bool { return apperrors.IsNotFoundResource(err, apperrors.ResourceActivePatron) },
		},
		{
			name: "unavailable wins over outstanding fines",
			req:  model.CheckoutRequest{PatronID: patronP, ItemID: itemI, OperatorID: operator},
			seed: func(tables *memory.Tables) {
				item := tables.Items[itemI]
				item.AvailableCopies = 0
				tables.Items[itemI] = item
				tables.Fines["f1"] = model.Fine{ID: "f1", PatronID: patronP, Amount: model.Units(500), Status: model.FineUnpaid}
			},
			check: func(err error) bool { return apperrors.IsConflictReason(err, apperrors.ReasonUnavailable) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seeds []func(*memory.Tables)
			if tt.seed != nil {
				seeds = append(seeds, tt.seed)
			}
			f := newFixture(t, seeds...)
			before := f.store.Snapshot()

			_, err := f.loans.Checkout(context.Background(), &tt.req)

			assert.True(t, tt.check(err), "got %v", err)
			assert.Equal(t, before, f.store.Snapshot())
		})
	}
}

func Test_Checkout_InvalidInputTouchesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.loans.Checkout(context.Background(), &model.CheckoutRequest{ItemID: itemI, OperatorID: operator})

	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Equal(t, "patron_id", appErr.Details["field"])
	assert.Empty(t, f.store.Snapshot().Loans)
}

func Test_Checkout_ConcurrentSingleCopy(t *testing.T) {
	f := newFixture(t)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i, patronID := range []string{patronP, patronQ} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.loans.Checkout(context.Background(), &model.CheckoutRequest{
				PatronID:   patronID,
				ItemID:     itemI,
				OperatorID: operator,
			})
		}()
	}
	wg.Wait()

	succeeded, unavailable := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperrors.IsConflictReason(err, apperrors.ReasonUnavailable):
			unavailable++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, unavailable)
	assert.Equal(t, 1, activeLoans(f.store.Snapshot(), itemI))
	assertCopiesBalanced(t, f.store)
}

// staleLedger reports a fixed available count on lookup, as a reader racing another
// checkout would see it, while reservations still hit the stored counts.
type staleLedger struct {
	service.ItemLedger
	reported int
}

func (l staleLedger) FindItem(ctx context.Context, ref model.ItemRef) (*model.Item, error) {
	item, err := l.ItemLedger.FindItem(ctx, ref)
	if err != nil {
		return nil, err
	}
	item.AvailableCopies = l.reported
	return item, nil
}

type failingLoanRepository struct {
	repository.LoanRepository
	err error
}

func (r failingLoanRepository) Create(context.Context, *model.Loan) error {
	return r.err
}

func Test_Checkout_LosesReservationRace(t *testing.T) {
	f := newFixtureWithDeps(t,
		func(deps *service.Deps) {
			deps.Ledger = staleLedger{ItemLedger: deps.Ledger, reported: 1}
		},
		func(tables *memory.Tables) {
			tables.Items[itemI] = model.Item{ID: itemI, Barcode: barcodeI, TotalCopies: 1, AvailableCopies: 0}
		},
	)

	_, err := f.loans.Checkout(context.Background(), &model.CheckoutRequest{PatronID: patronP, ItemID: itemI, OperatorID: operator})

	assert.True(t, apperrors.IsConflictReason(err, apperrors.ReasonUnavailable), "got %v", err)
	assert.Empty(t, f.store.Snapshot().Loans)
	assert.Equal(t, 0, f.available(itemI))
	assert.Empty(t, f.published.Events())
}

func Test_Checkout_FailedLoanWriteReturnsCopy(t *testing.T) {
	tests := []struct {
		name     string
		writeErr error
		wantCode string
	}{
		{
			name:     "driver failure",
			writeErr: errors.New("disk full"),
			wantCode: apperrors.CodeInternal,
		},
		{
			name:     "store unreachable",
			writeErr: fmt.Errorf("%w: connection reset", db.ErrUnavailable),
			wantCode: apperrors.CodeUnavailable,
		},
		{
			name:     "deadline",
			writeErr: context.DeadlineExceeded,
			wantCode: apperrors.CodeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixtureWithDeps(t, func(deps *service.Deps) {
				deps.Loans = failingLoanRepository{LoanRepository: deps.Loans, err: tt.writeErr}
			})

			_, err := f.loans.Checkout(context.Background(), &model.CheckoutRequest{PatronID: patronP, ItemID: itemI, OperatorID: operator})

			assert.True(t, apperrors.IsCode(err, tt.wantCode), "got %v", err)
			assert.Equal(t, 1, f.available(itemI))
			assert.Empty(t, f.store.Snapshot().Loans)
			assert.Empty(t, f.published.Events())
			assertCopiesBalanced(t, f.store)
		})
	}
}

func Test_CopyCountsStayBalanced(t *testing.T) {
	f := newFixture(t, func(tables *memory.Tables) {
		tables.Items["multi"] = model.Item{ID: "multi", Barcode: "BC-MULTI", TotalCopies: 3, AvailableCopies: 3}
	})
	ctx := context.Background()

	for round := range 4 {
		for _, patronID := range []string{patronP, patronQ} {
			_, err := f.loans.Checkout(ctx, &model.CheckoutRequest{PatronID: patronID, ItemID: "multi", OperatorID: operator})
			if err != nil {
				require.True(t, apperrors.IsConflictReason(err, apperrors.ReasonUnavailable), "round %d: %v", round, err)
			}
			assertCopiesBalanced(t, f.store)
		}
		_, err := f.loans.CheckIn(ctx, &model.CheckInRequest{ItemID: "multi"})
		require.NoError(t, err)
		assertCopiesBalanced(t, f.store)
	}

	assert.LessOrEqual(t, activeLoans(f.store.Snapshot(), "multi"), 3)
}

func Test_PublishFailureDoesNotFailCommittedOperation(t *testing.T) {
	f := newFixture(t)
	f.published.FailWith(errors.New("broker down"))

	loan, err := f.loans.Checkout(context.Background(), &model.CheckoutRequest{PatronID: patronP, ItemID: itemI, OperatorID: operator})

	require.NoError(t, err)
	assert.Contains(t, f.store.Snapshot().Loans, loan.ID)
	assert.Equal(t, 0, f.available(itemI))
}

func Test_CancelledContextRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.loans.Checkout(ctx, &model.CheckoutRequest{PatronID: patronP, ItemID: itemI, OperatorID: operator})

	assert.True(t, apperrors.IsCode(err, apperrors.CodeTimeout), "got %v", err)
	assert.Empty(t, f.store.Snapshot().Loans)
	assert.Equal(t, 1, f.available(itemI))
}

func Test_Listings(t *testing.T) {
	f := newFixture(t, func(tables *memory.Tables) {
		tables.Items["item-2"] = model.Item{ID: "item-2", Barcode: "BC-0002", TotalCopies: 1, AvailableCopies: 1}
	})
	ctx := context.Background()

	first := f.checkout(t, patronP, itemI)
	f.clock.Advance(day)
	second := f.checkout(t, patronQ, "item-2")

	f.clock.Set(d0.Add(20 * day))

	overdue, total, err := f.loans.ListOverdue(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, overdue, 2)
	assert.Equal(t, first.ID, overdue[0].ID, "most overdue first")

	_, err = f.loans.CheckIn(ctx, &model.CheckInRequest{ItemID: itemI})
	require.NoError(t, err)

	active, total, err := f.loans.ListLoans(ctx, service.LoanQuery{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	history, total, err := f.loans.ListLoans(ctx, service.LoanQuery{PatronID: patronP})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, history, 1)
	assert.NotNil(t, history[0].ReturnDate)

	fines, total, err := f.loans.ListFines(ctx, service.FineQuery{PatronID: patronP, Status: model.FineUnpaid})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, fines, 1)
	assert.Equal(t, first.ID, fines[0].LoanID)

	_, _, err = f.loans.ListFines(ctx, service.FineQuery{Status: "bogus"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}
