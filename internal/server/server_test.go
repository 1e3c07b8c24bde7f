package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"circulation/internal/events"
	"circulation/internal/server"
	"circulation/internal/store"
	"circulation/pkg/app"
	"circulation/pkg/client"
	"circulation/pkg/clock"
	"circulation/pkg/config"
	"circulation/pkg/db/memory"
	apperrors "circulation/pkg/errors"
	"circulation/pkg/logger"
	"circulation/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var d0 = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

const (
	patronP  = "patron-p"
	patronQ  = "patron-q"
	itemI    = "item-i"
	barcodeI = "BC-0001"
	day      = 24 * time.Hour
)

type harness struct {
	store     *memory.Store
	clock     *clock.Manual
	published *events.Recorder
	server    *httptest.Server
}

func newHarness(t *testing.T, tune ...func(*config.Config)) *harness {
	t.Helper()

	cfg := &config.Config{
		StoreDriver:        config.StoreDriverMemory,
		Port:               "0",
		RateLimitRequests:  1000,
		RateLimitWindow:    time.Minute,
		RequestTimeout:     5 * time.Second,
		IdempotencyTTL:     time.Hour,
		IdempotencyBackend: config.IdempotencyBackendMemory,
		MaxRequestSize:     64 * 1024,
		ShutdownTimeout:    time.Second,
		MaxUnpaidFines:     model.Units(100),
		HoldExpiryDays:     7,
		Log:                logger.Discard(),
		Client:             client.NewClient(),
	}
	for _, fn := range tune {
		fn(cfg)
	}

	repos, err := store.New(cfg)
	require.NoError(t, err)
	repos.Memory.Seed(func(tables *memory.Tables) {
		tables.Categories["adult"] = model.PatronCategory{
			ID:             "adult",
			LoanPeriodDays: 14,
			BorrowingLimit: 5,
			CanRenew:       true,
			MaxRenewals:    2,
			FineRatePerDay: model.Units(10),
		}
		tables.Patrons[patronP] = model.Patron{ID: patronP, Status: model.PatronActive, CategoryID: "adult"}
		tables.Patrons[patronQ] = model.Patron{ID: patronQ, Status: model.PatronActive, CategoryID: "adult"}
		tables.Items[itemI] = model.Item{ID: itemI, Barcode: barcodeI, TotalCopies: 1, AvailableCopies: 1}
	})

	manual := clock.NewManual(d0)
	recorder := events.NewRecorder()
	services := server.NewServices(cfg, repos, recorder, manual)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(services.Handlers()...)
	srv := httptest.NewServer(serverApp.Handler())
	t.Cleanup(srv.Close)

	return &harness{
		store:     repos.Memory,
		clock:     manual,
		published: recorder,
		server:    srv,
	}
}

func (h *harness) client(operator string) *client.CirculationClient {
	return client.NewCirculationClient(h.server.URL, operator)
}

func TestHealthAndReadiness(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	api := h.client("").HTTP()

	require.NoError(t, api.WaitForHealthy(ctx, time.Second))

	resp, err := api.GET(ctx, "/ready")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoanLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	desk := h.client("desk-1")

	resp, err := desk.Checkout(ctx, &model.CheckoutRequest{PatronID: patronP, Barcode: barcodeI})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, client.GetErrorMessage(resp))

	var loan model.Loan
	require.NoError(t, resp.DecodeData(&loan))
	assert.Equal(t, itemI, loan.ItemID)
	assert.Equal(t, "desk-1", loan.OperatorID)
	assert.Equal(t, d0.Add(14*day), loan.DueDate.UTC())

	resp, err = desk.Checkout(ctx, &model.CheckoutRequest{PatronID: patronQ, ItemID: itemI})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := client.GetError(resp)
	assert.Equal(t, apperrors.CodeConflict, body.Code)
	assert.Equal(t, apperrors.ReasonUnavailable, body.Details["reason"])

	resp, err = desk.PlaceHold(ctx, &model.PlaceHoldRequest{PatronID: patronQ, ItemID: itemI})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, client.GetErrorMessage(resp))

	resp, err = desk.Renew(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, apperrors.ReasonItemOnHold, client.GetError(resp).Details["reason"])

	h.clock.Advance(16 * day)
	resp, err = desk.CheckIn(ctx, &model.CheckInRequest{Barcode: barcodeI})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, client.GetErrorMessage(resp))

	var result model.CheckInResult
	require.NoError(t, resp.DecodeData(&result))
	require.NotNil(t, result.Fine)
	assert.Equal(t, 2, result.Fine.DaysOverdue)
	assert.Equal(t, model.Units(20), result.Fine.Amount)
	assert.Equal(t, 1, h.store.Snapshot().Items[itemI].AvailableCopies)

	resp, err = desk.ListFines(ctx, patronP, model.FineUnpaid, 10, 0)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		TotalCount int64 `json:"total_count"`
	}
	require.NoError(t, resp.DecodeJSON(&page))
	assert.EqualValues(t, 1, page.TotalCount)

	resp, err = desk.HoldQueue(ctx, itemI, 10, 0)
	require.NoError(t, err)
	require.NoError(t, resp.DecodeJSON(&page))
	assert.EqualValues(t, 1, page.TotalCount, "check-in leaves the hold queue alone")

	assert.Equal(t,
		[]events.Type{events.LoanCreated, events.HoldPlaced, events.LoanClosed, events.FineAssessed},
		h.published.Types())
}

func TestCheckoutIdempotencyKeyReplays(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	desk := h.client("desk-1")
	req := &model.CheckoutRequest{PatronID: patronP, ItemID: itemI}

	first, err := desk.CheckoutIdempotent(ctx, "k-1", req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second, err := desk.CheckoutIdempotent(ctx, "k-1", req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replay"))
	assert.Equal(t, first.Body, second.Body)

	assert.Equal(t, 0, h.store.Snapshot().Items[itemI].AvailableCopies)
	assert.Len(t, h.store.Snapshot().Loans, 1)
}

func TestRejectsMalformedRequests(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	desk := h.client("desk-1")

	resp, err := desk.Checkout(ctx, &model.CheckoutRequest{ItemID: itemI})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, apperrors.CodeValidation, client.GetError(resp).Code)

	resp, err = desk.HTTP().POSTRaw(ctx, "/api/v1/circulation/checkin", []byte(`{"item_id":`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = desk.UpdateHold(ctx, "missing", &model.HoldStatusUpdate{Status: "lost"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	assert.Empty(t, h.published.Events())
}

func TestOperatorRateLimit(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.RateLimitRequests = 2
	})
	ctx := context.Background()
	desk := h.client("desk-1")

	for range 2 {
		resp, err := desk.ListOverdue(ctx, 10, 0)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := desk.ListOverdue(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp, err = h.client("desk-2").ListOverdue(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
