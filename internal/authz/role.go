package authz

// =====================================================
// Role Constants (Type Safety)
// =====================================================

// OrgRole represents a user's role inside an organization.
type OrgRole string

const (
	// OrgRoleOwner has full access including organization deletion and transfer
	OrgRoleOwner OrgRole = "owner"

	// OrgRoleAdmin has full management access except owner-only operations
	OrgRoleAdmin OrgRole = "admin"

	// OrgRoleMember has baseline read access; write access comes from team roles
	OrgRoleMember OrgRole = "member"
)

// String returns the string representation of the OrgRole
func (r OrgRole) String() string {
	return string(r)
}

// IsValid checks if the role is one of the defined constants
func (r OrgRole) IsValid() bool {
	switch r {
	case OrgRoleOwner, OrgRoleAdmin, OrgRoleMember:
		return true
	default:
		return false
	}
}

// rank maps the organization role hierarchy to comparable integers.
// Higher rank means more privilege. Invalid roles rank below member.
func (r OrgRole) rank() int {
	switch r {
	case OrgRoleOwner:
		return 3
	case OrgRoleAdmin:
		return 2
	case OrgRoleMember:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r is privileged-or-equal to threshold
// in the owner > admin > member order.
func (r OrgRole) AtLeast(threshold OrgRole) bool {
	return r.IsValid() && r.rank() >= threshold.rank()
}

// TeamRole represents a user's role inside a single team. A team role
// grants no privilege outside that team.
type TeamRole string

const (
	// TeamRoleManager can manage the team's equipment, work orders and notes
	TeamRoleManager TeamRole = "manager"

	// TeamRoleTechnician can work on the team's equipment and work orders
	TeamRoleTechnician TeamRole = "technician"

	// TeamRoleViewer has read-only access to the team's resources
	TeamRoleViewer TeamRole = "viewer"
)

// String returns the string representation of the TeamRole
func (r TeamRole) String() string {
	return string(r)
}

// IsValid checks if the role is one of the defined constants
func (r TeamRole) IsValid() bool {
	switch r {
	case TeamRoleManager, TeamRoleTechnician, TeamRoleViewer:
		return true
	default:
		return false
	}
}

func (r TeamRole) rank() int {
	switch r {
	case TeamRoleManager:
		return 3
	case TeamRoleTechnician:
		return 2
	case TeamRoleViewer:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r is privileged-or-equal to threshold
// in the manager > technician > viewer order.
func (r TeamRole) AtLeast(threshold TeamRole) bool {
	return r.IsValid() && r.rank() >= threshold.rank()
}

// =====================================================
// Membership Status
// =====================================================

// MembershipStatus represents the state of an organization membership.
// Only StatusActive participates in any permission grant; every other
// status forces all permissions to false before any role logic runs.
type MembershipStatus string

const (
	StatusActive   MembershipStatus = "active"
	StatusInactive MembershipStatus = "inactive"
	StatusPending  MembershipStatus = "pending"
)

// String returns the string representation of the MembershipStatus
func (s MembershipStatus) String() string {
	return string(s)
}

// IsValid checks if the status is one of the defined constants
func (s MembershipStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	default:
		return false
	}
}

// =====================================================
// Plans
// =====================================================

// Plan represents an organization's subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// String returns the string representation of the Plan
func (p Plan) String() string {
	return string(p)
}

// IsValid checks if the plan is one of the defined constants
func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanPremium:
		return true
	default:
		return false
	}
}
