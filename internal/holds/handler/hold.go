package handler

import (
	"net/http"

	"circulation/internal/holds/service"
	httputil "circulation/pkg/http"
	"circulation/pkg/logger"
	"circulation/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type HoldHandler struct {
	service service.HoldService
	log     *logger.Logger
}

func NewHoldHandler(service service.HoldService, log *logger.Logger) *HoldHandler {
	return &HoldHandler{
		service: service,
		log:     log,
	}
}

func (h *HoldHandler) Place(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PlaceHoldRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Place", err)
		return
	}

	hold, err := h.service.Place(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Place", err)
		return
	}

	if err := httputil.WriteCreated(w, hold); err != nil {
		h.log.Error("failed to write created response", "handler", "Place", "operation", "WriteCreated", "error", err)
	}
}

func (h *HoldHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	query := r.URL.Query()
	holds, total, err := h.service.List(r.Context(), service.HoldQuery{
		Status:   model.HoldStatus(query.Get("status")),
		PatronID: query.Get("patron_id"),
		ItemID:   query.Get("item_id"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, holds, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *HoldHandler) Queue(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Queue", err)
		return
	}

	holds, total, err := h.service.Queue(r.Context(), ps.ByName("id"), limit, offset)
	if err != nil {
		h.writeError(w, "Queue", err)
		return
	}

	if err := httputil.WritePaginated(w, holds, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Queue", "operation", "WritePaginated", "error", err)
	}
}

func (h *HoldHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hold, err := h.service.Cancel(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, hold); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HoldHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.HoldStatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	hold, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, hold); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HoldHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *HoldHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/holds", h.Place)
	router.GET("/api/v1/holds", h.List)
	router.GET("/api/v1/holds/item/:id/queue", h.Queue)
	router.POST("/api/v1/holds/id/:id/cancel", h.Cancel)
	router.PATCH("/api/v1/holds/id/:id", h.UpdateStatus)
}
