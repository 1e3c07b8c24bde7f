package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"circulation/internal/circulation/service"
	apperrors "circulation/pkg/errors"
	"circulation/pkg/logger"
	"circulation/pkg/middleware"
	"circulation/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLoanService struct {
	checkoutFunc  func(ctx context.Context, req *model.CheckoutRequest) (*model.Loan, error)
	checkInFunc   func(ctx context.Context, req *model.CheckInRequest) (*model.CheckInResult, error)
	renewFunc     func(ctx context.Context, loanID, operatorID string) (*model.Loan, error)
	listLoansFunc func(ctx context.Context, query service.LoanQuery) ([]*model.Loan, int64, error)
	listFinesFunc func(ctx context.Context, query service.FineQuery) ([]*model.Fine, int64, error)
}

func (m *mockLoanService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.Loan, error) {
	if m.checkoutFunc != nil {
		return m.checkoutFunc(ctx, req)
	}
	return &model.Loan{}, nil
}

func (m *mockLoanService) CheckIn(ctx context.Context, req *model.CheckInRequest) (*model.CheckInResult, error) {
	if m.checkInFunc != nil {
		return m.checkInFunc(ctx, req)
	}
	return &model.CheckInResult{}, nil
}

func (m *mockLoanService) Renew(ctx context.Context, loanID string, operatorID string) (*model.Loan, error) {
	if m.renewFunc != nil {
		return m.renewFunc(ctx, loanID, operatorID)
	}
	return &model.Loan{ID: loanID}, nil
}

func (m *mockLoanService) ListLoans(ctx context.Context, query service.LoanQuery) ([]*model.Loan, int64, error) {
	if m.listLoansFunc != nil {
		return m.listLoansFunc(ctx, query)
	}
	return []*model.Loan{}, 0, nil
}

func (m *mockLoanService) ListOverdue(ctx context.Context, limit int, offset int64) ([]*model.Loan, int64, error) {
	return []*model.Loan{}, 0, nil
}

func (m *mockLoanService) ListFines(ctx context.Context, query service.FineQuery) ([]*model.Fine, int64, error) {
	if m.listFinesFunc != nil {
		return m.listFinesFunc(ctx, query)
	}
	return []*model.Fine{}, 0, nil
}

func newTestRouter(svc service.LoanService) *httprouter.Router {
	router := httprouter.New()
	NewLoanHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCheckout_OperatorHeaderOverridesBody(t *testing.T) {
	var received *model.CheckoutRequest
	router := newTestRouter(&mockLoanService{
		checkoutFunc: func(_ context.Context, req *model.CheckoutRequest) (*model.Loan, error) {
			received = req
			return &model.Loan{ID: "loan-1", PatronID: req.PatronID}, nil
		},
	})

	w := serve(router, http.MethodPost, "/api/v1/circulation/checkout",
		`{"patron_id":"p-1","barcode":"B-1","operator_id":"spoofed"}`,
		map[string]string{middleware.OperatorIDHeader: "desk-7"})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, received)
	assert.Equal(t, "desk-7", received.OperatorID)
	assert.Equal(t, "B-1", received.Barcode)

	var body struct {
		Data model.Loan `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "loan-1", body.Data.ID)
}

func TestCheckout_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unavailable", apperrors.ConflictWithReason(apperrors.ReasonUnavailable, "no copy"), http.StatusConflict, apperrors.CodeConflict},
		{"missing item", apperrors.NotFoundWithID(apperrors.ResourceItem, "i-1"), http.StatusNotFound, apperrors.CodeNotFound},
		{"store down", apperrors.UnavailableWithCause("store", nil), http.StatusServiceUnavailable, apperrors.CodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&mockLoanService{
				checkoutFunc: func(context.Context, *model.CheckoutRequest) (*model.Loan, error) {
					return nil, tt.err
				},
			})

			w := serve(router, http.MethodPost, "/api/v1/circulation/checkout", `{"patron_id":"p-1","item_id":"i-1"}`, nil)
			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var resp apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestCheckIn_EmptyBody(t *testing.T) {
	router := newTestRouter(&mockLoanService{
		checkInFunc: func(context.Context, *model.CheckInRequest) (*model.CheckInResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	})

	w := serve(router, http.MethodPost, "/api/v1/circulation/checkin", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenew_PassesPathIDAndOperator(t *testing.T) {
	var gotID, gotOperator string
	router := newTestRouter(&mockLoanService{
		renewFunc: func(_ context.Context, loanID, operatorID string) (*model.Loan, error) {
			gotID, gotOperator = loanID, operatorID
			return &model.Loan{ID: loanID, RenewedCount: 1}, nil
		},
	})

	w := serve(router, http.MethodPost, "/api/v1/circulation/loans/id/loan-9/renew", "",
		map[string]string{middleware.OperatorIDHeader: "desk-2"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "loan-9", gotID)
	assert.Equal(t, "desk-2", gotOperator)
}

func TestListLoans_QueryParameters(t *testing.T) {
	var got service.LoanQuery
	router := newTestRouter(&mockLoanService{
		listLoansFunc: func(_ context.Context, query service.LoanQuery) ([]*model.Loan, int64, error) {
			got = query
			return []*model.Loan{{ID: "l-1"}}, 7, nil
		},
	})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		want       service.LoanQuery
	}{
		{
			name:       "filters and paging",
			query:      "?patron_id=p-1&active=true&limit=5&offset=10",
			wantStatus: http.StatusOK,
			want:       service.LoanQuery{PatronID: "p-1", ActiveOnly: true, Limit: 5, Offset: 10},
		},
		{
			name:       "defaults",
			query:      "",
			wantStatus: http.StatusOK,
			want:       service.LoanQuery{Limit: 10},
		},
		{
			name:       "invalid limit",
			query:      "?limit=abc",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid active flag",
			query:      "?active=maybe",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = service.LoanQuery{}
			w := serve(router, http.MethodGet, "/api/v1/circulation/loans"+tt.query, "", nil)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, tt.want, got)

			var page struct {
				TotalCount int64 `json:"total_count"`
				Limit      int   `json:"limit"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
			assert.EqualValues(t, 7, page.TotalCount)
			assert.Equal(t, tt.want.Limit, page.Limit)
		})
	}
}

func TestListFines_StatusFilter(t *testing.T) {
	var got service.FineQuery
	router := newTestRouter(&mockLoanService{
		listFinesFunc: func(_ context.Context, query service.FineQuery) ([]*model.Fine, int64, error) {
			got = query
			return []*model.Fine{}, 0, nil
		},
	})

	w := serve(router, http.MethodGet, "/api/v1/circulation/fines?patron_id=p-1&status=partial", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.FinePartial, got.Status)
	assert.Equal(t, "p-1", got.PatronID)
}
