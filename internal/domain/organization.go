package domain

import (
	"time"

	"fleetdesk-api/internal/authz"
)

// =====================================================
// Organization Entity (DB Model)
// =====================================================

// Organization is the top-level tenant. It owns teams, equipment, work
// orders and members.
type Organization struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Plan      authz.Plan `json:"plan" db:"plan"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// OrganizationFeature is one plan feature flag enabled for an organization.
// Flags are pushed by the billing integration; the API only reads them.
type OrganizationFeature struct {
	OrganizationID string    `json:"organizationId" db:"organization_id"`
	Feature        string    `json:"feature" db:"feature"`
	EnabledAt      time.Time `json:"enabledAt" db:"enabled_at"`
}

// =====================================================
// Organization Member Entity (DB Model)
// =====================================================

// OrganizationMember is the membership of a user in an organization,
// carrying the organization-level role and membership status.
type OrganizationMember struct {
	ID             string                 `json:"id" db:"id"`
	OrganizationID string                 `json:"organizationId" db:"organization_id"`
	UserID         string                 `json:"userId" db:"user_id"`
	Role           authz.OrgRole          `json:"role" db:"role"`
	Status         authz.MembershipStatus `json:"status" db:"status"`
	InvitedBy      *string                `json:"invitedBy,omitempty" db:"invited_by"`
	CreatedAt      time.Time              `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time              `json:"updatedAt" db:"updated_at"`
}

// =====================================================
// DTOs
// =====================================================

// UpdateOrganizationRequest updates organization settings (PATCH semantics,
// nil = leave unchanged).
type UpdateOrganizationRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
}

// InviteMemberRequest invites a user into the organization. The membership
// starts in pending status until the invite is accepted.
type InviteMemberRequest struct {
	UserID string        `json:"userId" validate:"required"`
	Role   authz.OrgRole `json:"role" validate:"required,oneof=admin member"`
}

// UpdateMemberRequest changes a member's role or status.
type UpdateMemberRequest struct {
	Role   *authz.OrgRole          `json:"role,omitempty" validate:"omitempty,oneof=owner admin member"`
	Status *authz.MembershipStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive pending"`
}
