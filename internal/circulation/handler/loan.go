package handler

import (
	"net/http"

	"circulation/internal/circulation/service"
	httputil "circulation/pkg/http"
	"circulation/pkg/logger"
	"circulation/pkg/middleware"
	"circulation/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type LoanHandler struct {
	service service.LoanService
	log     *logger.Logger
}

func NewLoanHandler(service service.LoanService, log *logger.Logger) *LoanHandler {
	return &LoanHandler{
		service: service,
		log:     log,
	}
}

func (h *LoanHandler) Checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CheckoutRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Checkout", err)
		return
	}
	if operator := r.Header.Get(middleware.OperatorIDHeader); operator != "" {
		req.OperatorID = operator
	}

	loan, err := h.service.Checkout(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Checkout", err)
		return
	}

	if err := httputil.WriteCreated(w, loan); err != nil {
		h.log.Error("failed to write created response", "handler", "Checkout", "operation", "WriteCreated", "error", err)
	}
}

func (h *LoanHandler) CheckIn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CheckInRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "CheckIn", err)
		return
	}
	if operator := r.Header.Get(middleware.OperatorIDHeader); operator != "" {
		req.OperatorID = operator
	}

	result, err := h.service.CheckIn(r.Context(), &req)
	if err != nil {
		h.writeError(w, "CheckIn", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckIn", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LoanHandler) Renew(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	loan, err := h.service.Renew(r.Context(), ps.ByName("id"), r.Header.Get(middleware.OperatorIDHeader))
	if err != nil {
		h.writeError(w, "Renew", err)
		return
	}

	if err := httputil.WriteSuccess(w, loan); err != nil {
		h.log.Error("failed to write success response", "handler", "Renew", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListLoans", err)
		return
	}
	activeOnly, err := httputil.ExtractBool(r, "active")
	if err != nil {
		h.writeError(w, "ListLoans", err)
		return
	}

	query := r.URL.Query()
	loans, total, err := h.service.ListLoans(r.Context(), service.LoanQuery{
		PatronID:   query.Get("patron_id"),
		ItemID:     query.Get("item_id"),
		ActiveOnly: activeOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.writeError(w, "ListLoans", err)
		return
	}

	if err := httputil.WritePaginated(w, loans, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListLoans", "operation", "WritePaginated", "error", err)
	}
}

func (h *LoanHandler) ListOverdue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListOverdue", err)
		return
	}

	loans, total, err := h.service.ListOverdue(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "ListOverdue", err)
		return
	}

	if err := httputil.WritePaginated(w, loans, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListOverdue", "operation", "WritePaginated", "error", err)
	}
}

func (h *LoanHandler) ListFines(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListFines", err)
		return
	}

	query := r.URL.Query()
	fines, total, err := h.service.ListFines(r.Context(), service.FineQuery{
		PatronID: query.Get("patron_id"),
		Status:   model.FineStatus(query.Get("status")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.writeError(w, "ListFines", err)
		return
	}

	if err := httputil.WritePaginated(w, fines, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListFines", "operation", "WritePaginated", "error", err)
	}
}

func (h *LoanHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *LoanHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/circulation/checkout", h.Checkout)
	router.POST("/api/v1/circulation/checkin", h.CheckIn)
	router.POST("/api/v1/circulation/loans/id/:id/renew", h.Renew)
	router.GET("/api/v1/circulation/loans", h.ListLoans)
	router.GET("/api/v1/circulation/loans/overdue", h.ListOverdue)
	router.GET("/api/v1/circulation/fines", h.ListFines)
}
