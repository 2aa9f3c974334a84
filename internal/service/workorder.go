package service

import (
	"context"
	"errors"
	"time"

	"fleetdesk-api/internal/authz"
	"fleetdesk-api/internal/domain"
	"fleetdesk-api/internal/http/client"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/repo"

	"go.uber.org/zap"
)

var (
	ErrWorkOrderNotFound = repo.ErrWorkOrderNotFound
	ErrInvalidTransition = errors.New("work order status transition not allowed")
)

// WorkOrderService handles the work order lifecycle. Editing is team-scoped
// with a creator grant that lasts only while the order is still submitted;
// status moves are team-scoped with a standing assignee grant.
type WorkOrderService struct {
	workOrderRepo *repo.WorkOrderRepository
	auditRepo     *repo.AuditRepo
	session       *SessionService
	notifier      *client.WebhookNotifier
	log           *logger.Logger
}

func NewWorkOrderService(workOrderRepo *repo.WorkOrderRepository, auditRepo *repo.AuditRepo, session *SessionService, notifier *client.WebhookNotifier, log *logger.Logger) *WorkOrderService {
	return &WorkOrderService{
		workOrderRepo: workOrderRepo,
		auditRepo:     auditRepo,
		session:       session,
		notifier:      notifier,
		log:           log,
	}
}

func (s *WorkOrderService) audit(ctx context.Context, organizationID, userID, action, entityID string, details map[string]interface{}) {
	if err := s.auditRepo.LogAction(ctx, organizationID, userID, action, "work_order", entityID, details); err != nil {
		s.log.Error(ctx, "failed to write audit log",
			logger.Module("workorder"),
			logger.Action("audit"),
			zap.String("audit_action", action),
			zap.Error(err),
		)
	}
}

// entityContext maps a stored work order to the evaluation facts the
// permission engine consumes.
func entityContext(w *domain.WorkOrder) *authz.EntityContext {
	entity := &authz.EntityContext{
		TeamID:    w.TeamID,
		CreatedBy: w.CreatedBy,
		Status:    string(w.Status),
	}
	if w.AssigneeID != nil {
		entity.AssigneeID = *w.AssigneeID
	}
	return entity
}

// List retrieves work orders visible to the user, narrowing members without
// an org-wide grant to their own teams.
func (s *WorkOrderService) List(ctx context.Context, organizationID, userID string, params repo.ListWorkOrdersParams) ([]domain.WorkOrder, string, error) {
	orgCtx, err := s.session.ContextFor(ctx, userID, organizationID)
	if err != nil {
		return nil, "", err
	}
	params.OrganizationID = organizationID

	engine := s.session.Engine()

	if engine.Evaluate(authz.PermWorkOrderView, orgCtx, nil) {
		return s.workOrderRepo.List(ctx, params)
	}

	if params.TeamID != nil {
		if !engine.Evaluate(authz.PermWorkOrderView, orgCtx, &authz.EntityContext{TeamID: *params.TeamID}) {
			return nil, "", ErrForbidden
		}
		return s.workOrderRepo.List(ctx, params)
	}

	var items []domain.WorkOrder
	for _, teamID := range orgCtx.TeamIDs() {
		if !engine.Evaluate(authz.PermWorkOrderView, orgCtx, &authz.EntityContext{TeamID: teamID}) {
			continue
		}
		teamParams := params
		teamParams.TeamID = &teamID
		teamItems, _, err := s.workOrderRepo.List(ctx, teamParams)
		if err != nil {
			return nil, "", err
		}
		items = append(items, teamItems...)
	}

	return items, "", nil
}

// Get retrieves one work order.
// Permission: workorder.view, scoped to the order's team.
func (s *WorkOrderService) Get(ctx context.Context, organizationID, userID, workOrderID string) (*domain.WorkOrder, error) {
	workOrder, err := s.workOrderRepo.Get(ctx, organizationID, workOrderID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermWorkOrderView, &authz.EntityContext{TeamID: workOrder.TeamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrWorkOrderNotFound
	}

	return workOrder, nil
}

// Create opens a work order in submitted state.
// Permission: workorder.create, scoped to the target team.
func (s *WorkOrderService) Create(ctx context.Context, organizationID, userID string, req domain.CreateWorkOrderRequest) (*domain.WorkOrder, error) {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermWorkOrderCreate, &authz.EntityContext{TeamID: req.TeamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	workOrder, err := s.workOrderRepo.Create(ctx, generateID(), organizationID, userID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "workorder.create", workOrder.ID, map[string]interface{}{
		"team_id":      workOrder.TeamID,
		"equipment_id": workOrder.EquipmentID,
	})

	return workOrder, nil
}

// Update edits work order fields. The entity facts matter here: the creator
// keeps edit rights only while the order is still submitted.
// Permission: workorder.edit.
func (s *WorkOrderService) Update(ctx context.Context, organizationID, userID, workOrderID string, req domain.UpdateWorkOrderRequest) (*domain.WorkOrder, error) {
	current, err := s.workOrderRepo.Get(ctx, organizationID, workOrderID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermWorkOrderEdit, entityContext(current))
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	workOrder, err := s.workOrderRepo.Update(ctx, organizationID, workOrderID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "workorder.update", workOrderID, nil)

	return workOrder, nil
}

// Assign sets or clears the assignee. An order assigned for the first time
// moves from submitted to assigned.
// Permission: workorder.assign, scoped to the order's team.
func (s *WorkOrderService) Assign(ctx context.Context, organizationID, userID, workOrderID string, req domain.AssignWorkOrderRequest) (*domain.WorkOrder, error) {
	current, err := s.workOrderRepo.Get(ctx, organizationID, workOrderID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermWorkOrderAssign, &authz.EntityContext{TeamID: current.TeamID})
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	workOrder, err := s.workOrderRepo.Assign(ctx, organizationID, workOrderID, req.AssigneeID)
	if err != nil {
		return nil, err
	}

	if workOrder.Status == domain.WorkOrderStatusSubmitted && req.AssigneeID != nil {
		workOrder, err = s.changeStatus(ctx, organizationID, userID, workOrder, domain.WorkOrderStatusAssigned)
		if err != nil {
			return nil, err
		}
	}

	details := map[string]interface{}{}
	if req.AssigneeID != nil {
		details["assignee_id"] = *req.AssigneeID
	}
	s.audit(ctx, organizationID, userID, "workorder.assign", workOrderID, details)

	return workOrder, nil
}

// ChangeStatus moves the order along its lifecycle after validating the
// transition.
// Permission: workorder.changestatus; the current assignee always holds it.
func (s *WorkOrderService) ChangeStatus(ctx context.Context, organizationID, userID, workOrderID string, req domain.ChangeWorkOrderStatusRequest) (*domain.WorkOrder, error) {
	current, err := s.workOrderRepo.Get(ctx, organizationID, workOrderID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermWorkOrderChangeStatus, entityContext(current))
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	if !current.Status.CanTransitionTo(req.Status) {
		return nil, ErrInvalidTransition
	}

	workOrder, err := s.changeStatus(ctx, organizationID, userID, current, req.Status)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, organizationID, userID, "workorder.changestatus", workOrderID, map[string]interface{}{
		"from": string(current.Status),
		"to":   string(req.Status),
	})

	return workOrder, nil
}

// changeStatus persists a transition and fires the webhook. Webhook
// failures are logged, never surfaced: the status change already happened.
func (s *WorkOrderService) changeStatus(ctx context.Context, organizationID, userID string, current *domain.WorkOrder, next domain.WorkOrderStatus) (*domain.WorkOrder, error) {
	workOrder, err := s.workOrderRepo.UpdateStatus(ctx, organizationID, current.ID, next)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.NotifyWorkOrderStatus(ctx, client.WorkOrderStatusEvent{
		Event:          "workorder.status_changed",
		OrganizationID: organizationID,
		WorkOrderID:    workOrder.ID,
		TeamID:         workOrder.TeamID,
		EquipmentID:    workOrder.EquipmentID,
		PreviousStatus: string(current.Status),
		Status:         string(workOrder.Status),
		AssigneeID:     workOrder.AssigneeID,
		ChangedBy:      userID,
		OccurredAt:     time.Now().UTC(),
	}); err != nil {
		s.log.Warn(ctx, "failed to deliver work order webhook",
			logger.Module("workorder"),
			logger.Action("webhook"),
			zap.String("work_order_id", workOrder.ID),
			zap.Error(err),
		)
	}

	return workOrder, nil
}

// Delete soft-deletes a work order.
// Permission: workorder.delete (admin or above; no team path).
func (s *WorkOrderService) Delete(ctx context.Context, organizationID, userID, workOrderID string) error {
	allowed, err := s.session.Evaluate(ctx, userID, organizationID, authz.PermWorkOrderDelete, nil)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.workOrderRepo.SoftDelete(ctx, organizationID, workOrderID); err != nil {
		return err
	}

	s.audit(ctx, organizationID, userID, "workorder.delete", workOrderID, nil)

	return nil
}
