package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrMissingUserID indicates raw membership data without a user id (caller bug)
	ErrMissingUserID = errors.New("authz: user id is required")

	// ErrMissingOrganizationID indicates raw membership data without an organization id (caller bug)
	ErrMissingOrganizationID = errors.New("authz: organization id is required")

	// ErrInvalidOrgRole indicates an organization role outside the closed enum
	ErrInvalidOrgRole = errors.New("authz: invalid organization role")
)

// RawOrganization is the untrusted organization membership record handed
// to the Builder by the session/membership provider.
type RawOrganization struct {
	OrganizationID string
	UserID         string
	Role           OrgRole
	Status         MembershipStatus
	Plan           Plan
	Features       []string
}

// RawTeamMembership is one untrusted team membership row. Rows whose
// OrganizationID does not match the current organization are dropped
// during context construction.
type RawTeamMembership struct {
	TeamID         string
	OrganizationID string
	Role           TeamRole
}

// Warning is a data-integrity signal surfaced by the Builder. Anomalies in
// the raw membership data are resolved deterministically and reported, never
// turned into a denial.
type Warning struct {
	Code    string
	Message string
}

const (
	// WarnCrossOrgMembership flags a team membership row scoped to a different organization
	WarnCrossOrgMembership = "cross_org_team_membership"

	// WarnDuplicateMembership flags duplicate rows for the same team
	WarnDuplicateMembership = "duplicate_team_membership"

	// WarnInvalidTeamRole flags a team role outside the closed enum
	WarnInvalidTeamRole = "invalid_team_role"
)

// OrganizationContext is the immutable evaluation context for one user in one
// organization. It is built once per login/organization switch and discarded
// on switch, role change, or team-membership change. All fields are
// unexported; accessors return copies, so no caller can observe or introduce
// mutation after construction.
type OrganizationContext struct {
	userID         string
	organizationID string
	role           OrgRole
	status         MembershipStatus
	plan           Plan
	features       map[string]struct{}
	teamRoles      map[string]TeamRole
	fingerprint    string
}

// BuildContext validates raw membership data and assembles an immutable
// OrganizationContext. Team membership rows from other organizations are
// dropped, duplicate team rows collapse to the highest-privilege role, and
// each anomaly is reported as a Warning alongside the context.
//
// An empty user or organization id is a caller-contract violation and fails
// fast with an error; no decision is ever derived from such a context.
func BuildContext(org RawOrganization, teams []RawTeamMembership) (*OrganizationContext, []Warning, error) {
	if strings.TrimSpace(org.UserID) == "" {
		return nil, nil, ErrMissingUserID
	}
	if strings.TrimSpace(org.OrganizationID) == "" {
		return nil, nil, ErrMissingOrganizationID
	}
	if !org.Role.IsValid() {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidOrgRole, org.Role)
	}

	status := org.Status
	if !status.IsValid() {
		// Unknown status degrades to the least-privileged outcome.
		status = StatusInactive
	}

	plan := org.Plan
	if !plan.IsValid() {
		plan = PlanFree
	}

	features := make(map[string]struct{}, len(org.Features))
	for _, f := range org.Features {
		f = strings.TrimSpace(f)
		if f != "" {
			features[f] = struct{}{}
		}
	}

	var warnings []Warning

	teamRoles := make(map[string]TeamRole, len(teams))
	for _, tm := range teams {
		if tm.OrganizationID != org.OrganizationID {
			warnings = append(warnings, Warning{
				Code:    WarnCrossOrgMembership,
				Message: fmt.Sprintf("dropped membership for team %s scoped to organization %s", tm.TeamID, tm.OrganizationID),
			})
			continue
		}
		if tm.TeamID == "" {
			continue
		}
		if !tm.Role.IsValid() {
			warnings = append(warnings, Warning{
				Code:    WarnInvalidTeamRole,
				Message: fmt.Sprintf("dropped membership for team %s with unknown role %q", tm.TeamID, tm.Role),
			})
			continue
		}
		if existing, ok := teamRoles[tm.TeamID]; ok {
			warnings = append(warnings, Warning{
				Code:    WarnDuplicateMembership,
				Message: fmt.Sprintf("duplicate membership for team %s (%s, %s): keeping highest privilege", tm.TeamID, existing, tm.Role),
			})
			// Highest privilege wins deterministically.
			if !tm.Role.AtLeast(existing) {
				continue
			}
		}
		teamRoles[tm.TeamID] = tm.Role
	}

	ctx := &OrganizationContext{
		userID:         org.UserID,
		organizationID: org.OrganizationID,
		role:           org.Role,
		status:         status,
		plan:           plan,
		features:       features,
		teamRoles:      teamRoles,
	}
	ctx.fingerprint = ctx.computeFingerprint()

	return ctx, warnings, nil
}

// UserID returns the user this context was built for.
func (c *OrganizationContext) UserID() string { return c.userID }

// OrganizationID returns the organization this context is scoped to.
func (c *OrganizationContext) OrganizationID() string { return c.organizationID }

// Role returns the organization-level role.
func (c *OrganizationContext) Role() OrgRole { return c.role }

// Status returns the membership status.
func (c *OrganizationContext) Status() MembershipStatus { return c.status }

// Plan returns the organization's subscription plan.
func (c *OrganizationContext) Plan() Plan { return c.plan }

// HasFeature reports whether a plan feature is enabled for the organization.
func (c *OrganizationContext) HasFeature(feature string) bool {
	_, ok := c.features[feature]
	return ok
}

// TeamRole returns the user's role in the given team, if any.
func (c *OrganizationContext) TeamRole(teamID string) (TeamRole, bool) {
	role, ok := c.teamRoles[teamID]
	return role, ok
}

// IsTeamMember reports whether the user has any role in the given team.
func (c *OrganizationContext) IsTeamMember(teamID string) bool {
	_, ok := c.teamRoles[teamID]
	return ok
}

// TeamIDs returns the ids of all teams the user belongs to, sorted.
func (c *OrganizationContext) TeamIDs() []string {
	ids := make([]string, 0, len(c.teamRoles))
	for id := range c.teamRoles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Fingerprint returns a canonical value identity for this context. Two
// contexts built from semantically-equal inputs share a fingerprint even when
// the raw rows arrived in a different order. Used as the context component of
// decision-cache keys.
func (c *OrganizationContext) Fingerprint() string { return c.fingerprint }

func (c *OrganizationContext) computeFingerprint() string {
	features := make([]string, 0, len(c.features))
	for f := range c.features {
		features = append(features, f)
	}
	sort.Strings(features)

	teams := make([]string, 0, len(c.teamRoles))
	for id, role := range c.teamRoles {
		teams = append(teams, id+":"+string(role))
	}
	sort.Strings(teams)

	var b strings.Builder
	b.WriteString(c.userID)
	b.WriteByte('|')
	b.WriteString(c.organizationID)
	b.WriteByte('|')
	b.WriteString(string(c.role))
	b.WriteByte('|')
	b.WriteString(string(c.status))
	b.WriteByte('|')
	b.WriteString(string(c.plan))
	b.WriteByte('|')
	b.WriteString(strings.Join(features, ","))
	b.WriteByte('|')
	b.WriteString(strings.Join(teams, ","))
	return b.String()
}

// EntityContext is the minimal projection of a target record needed to
// evaluate one permission. It is a value constructed ad hoc per call site;
// absent fields simply cause the corresponding evaluation path not to match.
type EntityContext struct {
	TeamID     string
	CreatedBy  string
	AssigneeID string
	Status     string
}
