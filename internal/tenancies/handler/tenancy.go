package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"stayd/internal/tenancies/service"
	"stayd/pkg/config"
	apperrors "stayd/pkg/errors"
	httputil "stayd/pkg/http"
	"stayd/pkg/logger"
	"stayd/pkg/middleware"
	"stayd/pkg/model"
)

type TenancyHandler struct {
	service service.TenancyService
	log     *logger.Logger
}

func NewTenancyHandler(service service.TenancyService, log *logger.Logger) *TenancyHandler {
	return &TenancyHandler{
		service: service,
		log:     log,
	}
}

func (h *TenancyHandler) Assign(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var assignment model.Booking
	if err := json.NewDecoder(r.Body).Decode(&assignment); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Assign", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	actor := middleware.ActorFrom(r.Context())
	if err := h.service.Assign(r.Context(), &assignment, actor); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Assign", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, assignment); err != nil {
		h.log.Error("failed to write created response", "handler", "Assign", "operation", "WriteCreated", "error", err)
	}
}

func (h *TenancyHandler) Reassign(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var req service.ReassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Reassign", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}
	if req.RoomID == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("room_id is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Reassign", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	actor := middleware.ActorFrom(r.Context())
	replacement, err := h.service.Reassign(r.Context(), id, &req, actor)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Reassign", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, replacement); err != nil {
		h.log.Error("failed to write success response", "handler", "Reassign", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TenancyHandler) Unassign(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	actor := middleware.ActorFrom(r.Context())
	if err := h.service.Unassign(r.Context(), id, actor); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Unassign", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *TenancyHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	assignment, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, assignment); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TenancyHandler) ListByTenant(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("tenant_id query parameter is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListByTenant", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListByTenant", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	assignments, total, err := h.service.ListByTenant(r.Context(), tenantID, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListByTenant", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, assignments, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByTenant", "operation", "WritePaginated", "error", err)
	}
}

func (h *TenancyHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/tenancies", h.Assign)
	router.GET("/api/v1/tenancies", h.ListByTenant)
	router.GET("/api/v1/tenancies/id/:id", h.GetByID)
	router.POST("/api/v1/tenancies/id/:id/reassign", h.Reassign)
	router.DELETE("/api/v1/tenancies/id/:id", h.Unassign)
}
