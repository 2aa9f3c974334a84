package handler

import (
	"net/http"
	"strconv"

	"fleetdesk-api/internal/domain"
	"fleetdesk-api/internal/http/httperr"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/repo"
	"fleetdesk-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type EquipmentHandler struct {
	service *service.EquipmentService
}

func NewEquipmentHandler(service *service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{service: service}
}

func equipmentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "equipmentId")
	if id == "" {
		httperr.BadRequest400(w, r.Context(), httperr.ErrCodeInvalidParameter, "equipmentId is required")
		return "", false
	}
	return id, true
}

// parseLimit reads the limit query parameter, answering the request itself
// when the value is out of range.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 100 {
		httperr.BadRequest400(w, r.Context(), httperr.ErrCodeInvalidLimit, "limit must be between 1 and 100")
		return 0, false
	}
	return limit, true
}

// ListEquipment handles GET /v1/orgs/{orgId}/equipment
func (h *EquipmentHandler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var params repo.ListEquipmentParams

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	params.Limit = limit

	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		params.Cursor = &cursor
	}
	if teamID := r.URL.Query().Get("teamId"); teamID != "" {
		params.TeamID = &teamID
	}
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := domain.EquipmentStatus(statusStr)
		if !status.IsValid() {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidStatus, "invalid status value")
			return
		}
		params.Status = &status
	}

	items, nextCursor, err := h.service.List(ctx, organizationID, userID, params)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeList(w, items, nextCursor)
}

// CreateEquipment handles POST /v1/orgs/{orgId}/equipment
func (h *EquipmentHandler) CreateEquipment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req domain.CreateEquipmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	equipment, err := h.service.Create(ctx, organizationID, userID, req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "equipment created",
		zap.String("organizationId", organizationID),
		zap.String("equipmentId", equipment.ID),
		zap.String("teamId", equipment.TeamID),
	)

	writeJSON(w, http.StatusCreated, equipment)
}

// GetEquipment handles GET /v1/orgs/{orgId}/equipment/{equipmentId}
func (h *EquipmentHandler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := equipmentID(w, r)
	if !ok {
		return
	}

	equipment, err := h.service.Get(ctx, organizationID, userID, id)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, equipment)
}

// UpdateEquipment handles PATCH /v1/orgs/{orgId}/equipment/{equipmentId}
func (h *EquipmentHandler) UpdateEquipment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := equipmentID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateEquipmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	equipment, err := h.service.Update(ctx, organizationID, userID, id, req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "equipment updated",
		zap.String("organizationId", organizationID),
		zap.String("equipmentId", id),
	)

	writeJSON(w, http.StatusOK, equipment)
}

// DeleteEquipment handles DELETE /v1/orgs/{orgId}/equipment/{equipmentId}
func (h *EquipmentHandler) DeleteEquipment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := equipmentID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, organizationID, userID, id); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "equipment deleted",
		zap.String("organizationId", organizationID),
		zap.String("equipmentId", id),
	)

	w.WriteHeader(http.StatusNoContent)
}

// AddEquipmentImage handles POST /v1/orgs/{orgId}/equipment/{equipmentId}/images
func (h *EquipmentHandler) AddEquipmentImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := equipmentID(w, r)
	if !ok {
		return
	}

	var req domain.AddEquipmentImageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	image, err := h.service.AddImage(ctx, organizationID, userID, id, req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "equipment image added",
		zap.String("organizationId", organizationID),
		zap.String("equipmentId", id),
	)

	writeJSON(w, http.StatusCreated, image)
}

// ListEquipmentImages handles GET /v1/orgs/{orgId}/equipment/{equipmentId}/images
func (h *EquipmentHandler) ListEquipmentImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := equipmentID(w, r)
	if !ok {
		return
	}

	images, err := h.service.ListImages(ctx, organizationID, userID, id)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeList(w, images, "")
}
