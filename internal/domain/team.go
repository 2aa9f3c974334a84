package domain

import (
	"time"

	"fleetdesk-api/internal/authz"
)

// =====================================================
// Team Entity (DB Model)
// =====================================================

// Team is a sub-group within an organization with its own member roster.
// Equipment and work orders are scoped to a team; a team role grants no
// privilege outside that team.
type Team struct {
	ID             string     `json:"id" db:"id"`
	OrganizationID string     `json:"organizationId" db:"organization_id"`
	Name           string     `json:"name" db:"name"`
	Description    *string    `json:"description,omitempty" db:"description"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// TeamMember is the membership of a user in a team.
type TeamMember struct {
	ID             string         `json:"id" db:"id"`
	TeamID         string         `json:"teamId" db:"team_id"`
	OrganizationID string         `json:"organizationId" db:"organization_id"`
	UserID         string         `json:"userId" db:"user_id"`
	Role           authz.TeamRole `json:"role" db:"role"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
}

// =====================================================
// DTOs
// =====================================================

// CreateTeamRequest creates a team within the organization.
type CreateTeamRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// UpdateTeamRequest updates team settings (PATCH semantics).
type UpdateTeamRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// AddTeamMemberRequest adds a user to the team with a team role.
type AddTeamMemberRequest struct {
	UserID string         `json:"userId" validate:"required"`
	Role   authz.TeamRole `json:"role" validate:"required,oneof=manager technician viewer"`
}

// UpdateTeamMemberRequest changes a team member's role.
type UpdateTeamMemberRequest struct {
	Role authz.TeamRole `json:"role" validate:"required,oneof=manager technician viewer"`
}
