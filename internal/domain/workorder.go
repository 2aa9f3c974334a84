package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// WorkOrderStatus is the lifecycle state of a work order (native PostgreSQL
// ENUM). Lifecycle: submitted -> assigned -> in_progress -> completed, with
// cancelled reachable from any non-terminal state.
type WorkOrderStatus string

const (
	WorkOrderStatusSubmitted  WorkOrderStatus = "submitted"
	WorkOrderStatusAssigned   WorkOrderStatus = "assigned"
	WorkOrderStatusInProgress WorkOrderStatus = "in_progress"
	WorkOrderStatusCompleted  WorkOrderStatus = "completed"
	WorkOrderStatusCancelled  WorkOrderStatus = "cancelled"
)

// IsValid checks if the status is one of the defined constants
func (s WorkOrderStatus) IsValid() bool {
	switch s {
	case WorkOrderStatusSubmitted, WorkOrderStatusAssigned, WorkOrderStatusInProgress,
		WorkOrderStatusCompleted, WorkOrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s WorkOrderStatus) IsTerminal() bool {
	return s == WorkOrderStatusCompleted || s == WorkOrderStatusCancelled
}

// CanTransitionTo validates a status transition against the lifecycle.
func (s WorkOrderStatus) CanTransitionTo(next WorkOrderStatus) bool {
	if !next.IsValid() || s.IsTerminal() {
		return false
	}
	if next == WorkOrderStatusCancelled {
		return true
	}
	switch s {
	case WorkOrderStatusSubmitted:
		return next == WorkOrderStatusAssigned
	case WorkOrderStatusAssigned:
		return next == WorkOrderStatusInProgress
	case WorkOrderStatusInProgress:
		return next == WorkOrderStatusCompleted
	}
	return false
}

// Scan implements sql.Scanner for reading the ENUM from PostgreSQL.
func (s *WorkOrderStatus) Scan(src interface{}) error {
	if src == nil {
		*s = WorkOrderStatusSubmitted // default
		return nil
	}

	var str string
	switch v := src.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into WorkOrderStatus", src)
	}

	*s = WorkOrderStatus(str)
	if !s.IsValid() {
		return fmt.Errorf("invalid WorkOrderStatus value: %s", str)
	}
	return nil
}

// Value implements driver.Valuer for writing the ENUM to PostgreSQL.
func (s WorkOrderStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid WorkOrderStatus value: %s", string(s))
	}
	return string(s), nil
}

// WorkOrderPriority classifies urgency (native PostgreSQL ENUM).
type WorkOrderPriority string

const (
	WorkOrderPriorityLow    WorkOrderPriority = "low"
	WorkOrderPriorityMedium WorkOrderPriority = "medium"
	WorkOrderPriorityHigh   WorkOrderPriority = "high"
	WorkOrderPriorityUrgent WorkOrderPriority = "urgent"
)

// IsValid checks if the priority is one of the defined constants
func (p WorkOrderPriority) IsValid() bool {
	switch p {
	case WorkOrderPriorityLow, WorkOrderPriorityMedium, WorkOrderPriorityHigh, WorkOrderPriorityUrgent:
		return true
	}
	return false
}

// Scan implements sql.Scanner for reading the ENUM from PostgreSQL.
func (p *WorkOrderPriority) Scan(src interface{}) error {
	if src == nil {
		*p = WorkOrderPriorityMedium // default
		return nil
	}

	var str string
	switch v := src.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into WorkOrderPriority", src)
	}

	*p = WorkOrderPriority(str)
	if !p.IsValid() {
		return fmt.Errorf("invalid WorkOrderPriority value: %s", str)
	}
	return nil
}

// Value implements driver.Valuer for writing the ENUM to PostgreSQL.
func (p WorkOrderPriority) Value() (driver.Value, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("invalid WorkOrderPriority value: %s", string(p))
	}
	return string(p), nil
}

// WorkOrder is a maintenance job against a piece of equipment. The creator
// keeps edit rights only while the order is still submitted; the assignee can
// always move its status.
type WorkOrder struct {
	ID             string `json:"id" db:"id"`
	OrganizationID string `json:"organizationId" db:"organization_id"`
	TeamID         string `json:"teamId" db:"team_id"`
	EquipmentID    string `json:"equipmentId" db:"equipment_id"`

	Title       string  `json:"title" db:"title"`
	Description *string `json:"description,omitempty" db:"description"`

	Status   WorkOrderStatus   `json:"status" db:"status"`
	Priority WorkOrderPriority `json:"priority" db:"priority"`

	CreatedBy  string  `json:"createdBy" db:"created_by"`
	AssigneeID *string `json:"assigneeId,omitempty" db:"assignee_id"`

	DueDate     *time.Time `json:"dueDate,omitempty" db:"due_date"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`

	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// =====================================================
// DTOs
// =====================================================

// CreateWorkOrderRequest opens a work order against equipment. The order
// always starts as submitted; OrganizationID comes from the path and
// CreatedBy from the JWT claims.
type CreateWorkOrderRequest struct {
	TeamID      string `json:"teamId" validate:"required"`
	EquipmentID string `json:"equipmentId" validate:"required"`
	Title       string `json:"title" validate:"required,min=1,max=500"`

	Description *string            `json:"description,omitempty" validate:"omitempty,max=5000"`
	Priority    *WorkOrderPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
}

// UpdateWorkOrderRequest edits work order fields (PATCH semantics). Status
// and assignee move through their dedicated endpoints.
type UpdateWorkOrderRequest struct {
	Title       *string            `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Description *string            `json:"description,omitempty" validate:"omitempty,max=5000"`
	Priority    *WorkOrderPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
}

// AssignWorkOrderRequest assigns or reassigns the order. A nil AssigneeID
// clears the assignment.
type AssignWorkOrderRequest struct {
	AssigneeID *string `json:"assigneeId,omitempty"`
}

// ChangeWorkOrderStatusRequest moves the order along its lifecycle.
type ChangeWorkOrderStatusRequest struct {
	Status WorkOrderStatus `json:"status" validate:"required,oneof=submitted assigned in_progress completed cancelled"`
}
