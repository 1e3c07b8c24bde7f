package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"circulation/internal/holds/service"
	apperrors "circulation/pkg/errors"
	"circulation/pkg/logger"
	"circulation/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock service for testing
type mockHoldService struct {
	placeFunc  func(ctx context.Context, req *model.PlaceHoldRequest) (*model.Hold, error)
	cancelFunc func(ctx context.Context, holdID string) (*model.Hold, error)
	updateFunc func(ctx context.Context, holdID string, update *model.HoldStatusUpdate) (*model.Hold, error)
	queueFunc  func(ctx context.Context, itemID string, limit int, offset int64) ([]*model.Hold, int64, error)
}

func (m *mockHoldService) Place(ctx context.Context, req *model.PlaceHoldRequest) (*model.Hold, error) {
	return m.placeFunc(ctx, req)
}

func (m *mockHoldService) Cancel(ctx context.Context, holdID string) (*model.Hold, error) {
	return m.cancelFunc(ctx, holdID)
}

func (m *mockHoldService) UpdateStatus(ctx context.Context, holdID string, update *model.HoldStatusUpdate) (*model.Hold, error) {
	return m.updateFunc(ctx, holdID, update)
}

func (m *mockHoldService) List(ctx context.Context, query service.HoldQuery) ([]*model.Hold, int64, error) {
	return []*model.Hold{}, 0, nil
}

func (m *mockHoldService) Queue(ctx context.Context, itemID string, limit int, offset int64) ([]*model.Hold, int64, error) {
	return m.queueFunc(ctx, itemID, limit, offset)
}

func (m *mockHoldService) HasOpenHolds(ctx context.Context, itemID string) (bool, error) {
	return false, nil
}

func routerFor(svc service.HoldService) *httprouter.Router {
	router := httprouter.New()
	NewHoldHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestPlace_DuplicateHoldIsConflict(t *testing.T) {
	router := routerFor(&mockHoldService{
		placeFunc: func(context.Context, *model.PlaceHoldRequest) (*model.Hold, error) {
			return nil, apperrors.ConflictWithReason(apperrors.ReasonDuplicateHold, "open hold exists")
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/holds", strings.NewReader(`{"patron_id":"p","item_id":"i"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ReasonDuplicateHold, resp.Details["reason"])
}

func TestPlace_UnknownFieldRejected(t *testing.T) {
	router := routerFor(&mockHoldService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/holds", strings.NewReader(`{"patron_id":"p","item_id":"i","status":"fulfilled"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelAndUpdate_UsePathID(t *testing.T) {
	var cancelled, updated string
	var notes *string
	router := routerFor(&mockHoldService{
		cancelFunc: func(_ context.Context, holdID string) (*model.Hold, error) {
			cancelled = holdID
			return &model.Hold{ID: holdID, Status: model.HoldCancelled}, nil
		},
		updateFunc: func(_ context.Context, holdID string, update *model.HoldStatusUpdate) (*model.Hold, error) {
			updated = holdID
			notes = update.Notes
			return &model.Hold{ID: holdID, Status: update.Status}, nil
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/holds/id/h-1/cancel", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "h-1", cancelled)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/v1/holds/id/h-2",
		strings.NewReader(`{"status":"available","notes":"on shelf B"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "h-2", updated)
	require.NotNil(t, notes)
	assert.Equal(t, "on shelf B", *notes)
}

func TestQueue_Pagination(t *testing.T) {
	var gotLimit int
	var gotOffset int64
	router := routerFor(&mockHoldService{
		queueFunc: func(_ context.Context, itemID string, limit int, offset int64) ([]*model.Hold, int64, error) {
			gotLimit, gotOffset = limit, offset
			return []*model.Hold{{ID: "h-1", ItemID: itemID}}, 3, nil
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/holds/item/i-1/queue?limit=500&offset=-4", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, gotLimit)
	assert.Equal(t, int64(0), gotOffset)
}
