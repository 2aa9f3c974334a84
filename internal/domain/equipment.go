package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// EquipmentStatus is the operational state of a piece of equipment
// (native PostgreSQL ENUM).
type EquipmentStatus string

const (
	EquipmentStatusOperational  EquipmentStatus = "operational"
	EquipmentStatusMaintenance  EquipmentStatus = "maintenance"
	EquipmentStatusOutOfService EquipmentStatus = "out_of_service"
	EquipmentStatusRetired      EquipmentStatus = "retired"
)

// IsValid checks if the status is one of the defined constants
func (s EquipmentStatus) IsValid() bool {
	switch s {
	case EquipmentStatusOperational, EquipmentStatusMaintenance, EquipmentStatusOutOfService, EquipmentStatusRetired:
		return true
	}
	return false
}

// Scan implements sql.Scanner for reading the ENUM from PostgreSQL.
func (s *EquipmentStatus) Scan(src interface{}) error {
	if src == nil {
		*s = EquipmentStatusOperational // default
		return nil
	}

	var str string
	switch v := src.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into EquipmentStatus", src)
	}

	*s = EquipmentStatus(str)
	if !s.IsValid() {
		return fmt.Errorf("invalid EquipmentStatus value: %s", str)
	}
	return nil
}

// Value implements driver.Valuer for writing the ENUM to PostgreSQL.
func (s EquipmentStatus) Value() (driver.Value, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid EquipmentStatus value: %s", string(s))
	}
	return string(s), nil
}

// Equipment is a tracked asset belonging to one team of one organization.
type Equipment struct {
	ID             string `json:"id" db:"id"`
	OrganizationID string `json:"organizationId" db:"organization_id"`
	TeamID         string `json:"teamId" db:"team_id"`

	Name         string  `json:"name" db:"name"`
	Description  *string `json:"description,omitempty" db:"description"`
	SerialNumber *string `json:"serialNumber,omitempty" db:"serial_number"`
	Model        *string `json:"model,omitempty" db:"model"`
	Manufacturer *string `json:"manufacturer,omitempty" db:"manufacturer"`
	Location     *string `json:"location,omitempty" db:"location"`

	Status EquipmentStatus `json:"status" db:"status"`

	CreatedBy string `json:"createdBy" db:"created_by"`

	PurchasedAt *time.Time `json:"purchasedAt,omitempty" db:"purchased_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// =====================================================
// DTOs
// =====================================================

// CreateEquipmentRequest registers a new asset in a team.
// OrganizationID is always injected from the path parameter and CreatedBy
// from the JWT claims.
type CreateEquipmentRequest struct {
	TeamID string `json:"teamId" validate:"required"`
	Name   string `json:"name" validate:"required,min=1,max=300"`

	Description  *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	SerialNumber *string `json:"serialNumber,omitempty" validate:"omitempty,max=100"`
	Model        *string `json:"model,omitempty" validate:"omitempty,max=200"`
	Manufacturer *string `json:"manufacturer,omitempty" validate:"omitempty,max=200"`
	Location     *string `json:"location,omitempty" validate:"omitempty,max=300"`

	Status *EquipmentStatus `json:"status,omitempty" validate:"omitempty,oneof=operational maintenance out_of_service retired"`

	PurchasedAt *time.Time `json:"purchasedAt,omitempty"`
}

// UpdateEquipmentRequest updates an asset (PATCH semantics, nil = leave
// unchanged).
type UpdateEquipmentRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=300"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	SerialNumber *string `json:"serialNumber,omitempty" validate:"omitempty,max=100"`
	Model        *string `json:"model,omitempty" validate:"omitempty,max=200"`
	Manufacturer *string `json:"manufacturer,omitempty" validate:"omitempty,max=200"`
	Location     *string `json:"location,omitempty" validate:"omitempty,max=300"`

	Status *EquipmentStatus `json:"status,omitempty" validate:"omitempty,oneof=operational maintenance out_of_service retired"`

	PurchasedAt *time.Time `json:"purchasedAt,omitempty"`
}

// EquipmentImage is an uploaded image attached to a piece of equipment.
type EquipmentImage struct {
	ID          string    `json:"id" db:"id"`
	EquipmentID string    `json:"equipmentId" db:"equipment_id"`
	URL         string    `json:"url" db:"url"`
	UploadedBy  string    `json:"uploadedBy" db:"uploaded_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// AddEquipmentImageRequest attaches an already-uploaded image to equipment.
type AddEquipmentImageRequest struct {
	URL string `json:"url" validate:"required,url,max=2000"`
}
