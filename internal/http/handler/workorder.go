package handler

import (
	"errors"
	"net/http"

	"fleetdesk-api/internal/domain"
	"fleetdesk-api/internal/http/httperr"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/repo"
	"fleetdesk-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WorkOrderHandler struct {
	service *service.WorkOrderService
}

func NewWorkOrderHandler(service *service.WorkOrderService) *WorkOrderHandler {
	return &WorkOrderHandler{service: service}
}

func workOrderID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "workOrderId")
	if id == "" {
		httperr.BadRequest400(w, r.Context(), httperr.ErrCodeInvalidParameter, "workOrderId is required")
		return "", false
	}
	return id, true
}

// ListWorkOrders handles GET /v1/orgs/{orgId}/workorders
func (h *WorkOrderHandler) ListWorkOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var params repo.ListWorkOrdersParams

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
	if assigneeID := r.URL.Query().Get("assigneeId"); assigneeID != "" {
		params.AssigneeID = &assigneeID
	}
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := domain.WorkOrderStatus(statusStr)
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

// CreateWorkOrder handles POST /v1/orgs/{orgId}/workorders
func (h *WorkOrderHandler) CreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req domain.CreateWorkOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if req.Priority != nil && !req.Priority.IsValid() {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidPriority, "invalid priority value")
		return
	}

	workOrder, err := h.service.Create(ctx, organizationID, userID, req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "work order created",
		zap.String("organizationId", organizationID),
		zap.String("workOrderId", workOrder.ID),
		zap.String("teamId", workOrder.TeamID),
	)

	writeJSON(w, http.StatusCreated, workOrder)
}

// GetWorkOrder handles GET /v1/orgs/{orgId}/workorders/{workOrderId}
func (h *WorkOrderHandler) GetWorkOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := workOrderID(w, r)
	if !ok {
		return
	}

	workOrder, err := h.service.Get(ctx, organizationID, userID, id)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, workOrder)
}

// UpdateWorkOrder handles PATCH /v1/orgs/{orgId}/workorders/{workOrderId}
func (h *WorkOrderHandler) UpdateWorkOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := workOrderID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateWorkOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if req.Priority != nil && !req.Priority.IsValid() {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidPriority, "invalid priority value")
		return
	}

	workOrder, err := h.service.Update(ctx, organizationID, userID, id, req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "work order updated",
		zap.String("organizationId", organizationID),
		zap.String("workOrderId", id),
	)

	writeJSON(w, http.StatusOK, workOrder)
}

// AssignWorkOrder handles POST /v1/orgs/{orgId}/workorders/{workOrderId}/assign
func (h *WorkOrderHandler) AssignWorkOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := workOrderID(w, r)
	if !ok {
		return
	}

	var req domain.AssignWorkOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	workOrder, err := h.service.Assign(ctx, organizationID, userID, id, req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "work order assigned",
		zap.String("organizationId", organizationID),
		zap.String("workOrderId", id),
	)

	writeJSON(w, http.StatusOK, workOrder)
}

// ChangeWorkOrderStatus handles POST /v1/orgs/{orgId}/workorders/{workOrderId}/status
func (h *WorkOrderHandler) ChangeWorkOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := workOrderID(w, r)
	if !ok {
		return
	}

	var req domain.ChangeWorkOrderStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if !req.Status.IsValid() {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidStatus, "invalid status value")
		return
	}

	workOrder, err := h.service.ChangeStatus(ctx, organizationID, userID, id, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidTransition, "status transition not allowed")
			return
		}
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "work order status changed",
		zap.String("organizationId", organizationID),
		zap.String("workOrderId", id),
		zap.String("status", string(workOrder.Status)),
	)

	writeJSON(w, http.StatusOK, workOrder)
}

// DeleteWorkOrder handles DELETE /v1/orgs/{orgId}/workorders/{workOrderId}
func (h *WorkOrderHandler) DeleteWorkOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := workOrderID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, organizationID, userID, id); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "work order deleted",
		zap.String("organizationId", organizationID),
		zap.String("workOrderId", id),
	)

	w.WriteHeader(http.StatusNoContent)
}
