package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// NoteVisibility controls who sees an equipment note (native PostgreSQL
// ENUM). Private notes are visible to the team only; public notes also to
// organization admins browsing the asset.
type NoteVisibility string

const (
	NoteVisibilityPublic  NoteVisibility = "public"
	NoteVisibilityPrivate NoteVisibility = "private"
)

// IsValid checks if the visibility is one of the defined constants
func (v NoteVisibility) IsValid() bool {
	return v == NoteVisibilityPublic || v == NoteVisibilityPrivate
}

// Scan implements sql.Scanner for reading the ENUM from PostgreSQL.
func (v *NoteVisibility) Scan(src interface{}) error {
	if src == nil {
		*v = NoteVisibilityPublic // default
		return nil
	}

	var str string
	switch val := src.(type) {
	case string:
		str = val
	case []byte:
		str = string(val)
	default:
		return fmt.Errorf("cannot scan %T into NoteVisibility", src)
	}

	*v = NoteVisibility(str)
	if !v.IsValid() {
		return fmt.Errorf("invalid NoteVisibility value: %s", str)
	}
	return nil
}

// Value implements driver.Valuer for writing the ENUM to PostgreSQL.
func (v NoteVisibility) Value() (driver.Value, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("invalid NoteVisibility value: %s", string(v))
	}
	return string(v), nil
}

// EquipmentNote is a maintenance note attached to a piece of equipment.
type EquipmentNote struct {
	ID             string `json:"id" db:"id"`
	OrganizationID string `json:"organizationId" db:"organization_id"`
	TeamID         string `json:"teamId" db:"team_id"`
	EquipmentID    string `json:"equipmentId" db:"equipment_id"`

	Body       string         `json:"body" db:"body"`
	Visibility NoteVisibility `json:"visibility" db:"visibility"`

	CreatedBy string `json:"createdBy" db:"created_by"`

	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// NoteImage is an uploaded image attached to a note.
type NoteImage struct {
	ID         string    `json:"id" db:"id"`
	NoteID     string    `json:"noteId" db:"note_id"`
	URL        string    `json:"url" db:"url"`
	UploadedBy string    `json:"uploadedBy" db:"uploaded_by"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// =====================================================
// DTOs
// =====================================================

// CreateNoteRequest adds a note to equipment. Visibility defaults to public.
type CreateNoteRequest struct {
	Body       string          `json:"body" validate:"required,min=1,max=10000"`
	Visibility *NoteVisibility `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
}

// UpdateNoteRequest edits a note (PATCH semantics).
type UpdateNoteRequest struct {
	Body       *string         `json:"body,omitempty" validate:"omitempty,min=1,max=10000"`
	Visibility *NoteVisibility `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
}

// AddNoteImageRequest attaches an already-uploaded image to a note.
type AddNoteImageRequest struct {
	URL string `json:"url" validate:"required,url,max=2000"`
}
