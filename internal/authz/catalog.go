package authz

import (
	"fmt"
	"strings"
)

// Permission is a named, atomic authorization question, keyed
// "<domain>.<action>". The engine treats it as an opaque value; the closed
// catalog below maps each permission to its evaluation descriptor.
type Permission string

// Organization permissions.
const (
	PermOrganizationView          Permission = "organization.view"
	PermOrganizationManage        Permission = "organization.manage"
	PermOrganizationDelete        Permission = "organization.delete"
	PermOrganizationInvite        Permission = "organization.invite"
	PermOrganizationCreateTeams   Permission = "organization.createteams"
	PermOrganizationBilling       Permission = "organization.billing"
	PermOrganizationManageMembers Permission = "organization.managemembers"
)

// Team permissions.
const (
	PermTeamView   Permission = "team.view"
	PermTeamManage Permission = "team.manage"
)

// Equipment permissions.
const (
	PermEquipmentView      Permission = "equipment.view"
	PermEquipmentCreate    Permission = "equipment.create"
	PermEquipmentEdit      Permission = "equipment.edit"
	PermEquipmentDelete    Permission = "equipment.delete"
	PermEquipmentAddNotes  Permission = "equipment.addnotes"
	PermEquipmentAddImages Permission = "equipment.addimages"
)

// Equipment note permissions. Notes have no owner/assignee concept, so these
// collapse to team-role thresholds only.
const (
	PermEquipmentNoteView         Permission = "equipmentnote.view"
	PermEquipmentNoteAddPublic    Permission = "equipmentnote.addpublic"
	PermEquipmentNoteAddPrivate   Permission = "equipmentnote.addprivate"
	PermEquipmentNoteEditAny      Permission = "equipmentnote.editany"
	PermEquipmentNoteDeleteAny    Permission = "equipmentnote.deleteany"
	PermEquipmentNoteUploadImages Permission = "equipmentnote.uploadimages"
)

// Work order permissions.
const (
	PermWorkOrderView         Permission = "workorder.view"
	PermWorkOrderCreate       Permission = "workorder.create"
	PermWorkOrderEdit         Permission = "workorder.edit"
	PermWorkOrderAssign       Permission = "workorder.assign"
	PermWorkOrderDelete       Permission = "workorder.delete"
	PermWorkOrderChangeStatus Permission = "workorder.changestatus"
)

// Premium-gated permissions.
const (
	PermAnalyticsView Permission = "analytics.view"
	PermReportsExport Permission = "reports.export"
)

// Feature flags consulted by the feature gate.
const (
	FeatureAdvancedAnalytics = "advanced_analytics"
	FeatureCustomReports     = "custom_reports"
)

// String returns the string representation of the Permission
func (p Permission) String() string {
	return string(p)
}

// Domain returns the "<domain>" half of the permission key.
func (p Permission) Domain() string {
	if i := strings.IndexByte(string(p), '.'); i > 0 {
		return string(p)[:i]
	}
	return string(p)
}

// EntityRule selects an entity-relationship grant evaluated after the role
// and team paths. Rules grant access based on the caller's relationship to
// the specific entity, not on any role.
type EntityRule int

const (
	// EntityRuleNone disables the entity-relationship path
	EntityRuleNone EntityRule = iota

	// EntityRuleCreatorWhileSubmitted grants the entity's creator access only
	// while the entity status is still "submitted". Once the status moves on,
	// the grant is permanently revoked for that entity.
	EntityRuleCreatorWhileSubmitted

	// EntityRuleAssignee grants the entity's current assignee access
	// regardless of entity status.
	EntityRuleAssignee
)

// Descriptor declares how one permission is evaluated. Descriptors are
// static; the engine walks them table-driven instead of cascading string
// comparisons, so adding a permission is a single catalog entry.
type Descriptor struct {
	// MinOrgRole is the organization role that grants the permission
	// unconditionally (the fast path).
	MinOrgRole OrgRole

	// OwnerOnly restricts the fast path to the owner role regardless of
	// MinOrgRole (organization deletion/transfer).
	OwnerOnly bool

	// TeamScoped enables the team path: with an entity teamId present, a
	// membership in exactly that team at MinTeamRole or above grants the
	// permission.
	TeamScoped bool

	// MinTeamRole is the team-role threshold for the team path.
	MinTeamRole TeamRole

	// RequiresFeature names a plan feature that must be enabled for the
	// organization. Checked before any role logic, so a downgraded
	// organization loses the permission immediately whatever the role.
	RequiresFeature string

	// EntityRule is the entity-relationship grant, if any.
	EntityRule EntityRule
}

// catalog is the closed permission registry. Permissions not present here
// evaluate to deny.
var catalog = map[Permission]Descriptor{
	PermOrganizationView:          {MinOrgRole: OrgRoleMember},
	PermOrganizationManage:        {MinOrgRole: OrgRoleAdmin},
	PermOrganizationDelete:        {MinOrgRole: OrgRoleOwner, OwnerOnly: true},
	PermOrganizationInvite:        {MinOrgRole: OrgRoleAdmin},
	PermOrganizationCreateTeams:   {MinOrgRole: OrgRoleAdmin},
	PermOrganizationBilling:       {MinOrgRole: OrgRoleAdmin},
	PermOrganizationManageMembers: {MinOrgRole: OrgRoleAdmin},

	PermTeamView:   {MinOrgRole: OrgRoleMember},
	PermTeamManage: {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleManager},

	PermEquipmentView:      {MinOrgRole: OrgRoleMember, TeamScoped: true, MinTeamRole: TeamRoleTechnician},
	PermEquipmentCreate:    {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleManager},
	PermEquipmentEdit:      {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleManager},
	PermEquipmentDelete:    {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleManager},
	PermEquipmentAddNotes:  {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleTechnician},
	PermEquipmentAddImages: {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleTechnician},

	PermEquipmentNoteView:         {MinOrgRole: OrgRoleMember, TeamScoped: true, MinTeamRole: TeamRoleViewer},
	PermEquipmentNoteAddPublic:    {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleTechnician},
	PermEquipmentNoteAddPrivate:   {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleTechnician},
	PermEquipmentNoteEditAny:      {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleManager},
	PermEquipmentNoteDeleteAny:    {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleManager},
	PermEquipmentNoteUploadImages: {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleTechnician},

	PermWorkOrderView:         {MinOrgRole: OrgRoleMember, TeamScoped: true, MinTeamRole: TeamRoleViewer},
	PermWorkOrderCreate:       {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleTechnician},
	PermWorkOrderEdit:         {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleManager, EntityRule: EntityRuleCreatorWhileSubmitted},
	PermWorkOrderAssign:       {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleManager},
	PermWorkOrderDelete:       {MinOrgRole: OrgRoleAdmin},
	PermWorkOrderChangeStatus: {MinOrgRole: OrgRoleAdmin, TeamScoped: true, MinTeamRole: TeamRoleTechnician, EntityRule: EntityRuleAssignee},

	PermAnalyticsView: {MinOrgRole: OrgRoleMember, RequiresFeature: FeatureAdvancedAnalytics},
	PermReportsExport: {MinOrgRole: OrgRoleAdmin, RequiresFeature: FeatureCustomReports},
}

func init() {
	// Malformed descriptors are programmer errors; fail fast at startup,
	// before any decision can be made from a broken table.
	for perm, d := range catalog {
		if err := validateDescriptor(perm, d); err != nil {
			panic(err)
		}
	}
}

func validateDescriptor(perm Permission, d Descriptor) error {
	if !strings.Contains(string(perm), ".") {
		return fmt.Errorf("authz: permission %q is not namespaced as domain.action", perm)
	}
	if !d.MinOrgRole.IsValid() {
		return fmt.Errorf("authz: permission %q has invalid org role threshold %q", perm, d.MinOrgRole)
	}
	if d.TeamScoped && !d.MinTeamRole.IsValid() {
		return fmt.Errorf("authz: permission %q is team-scoped without a team role threshold", perm)
	}
	if !d.TeamScoped && d.MinTeamRole != "" {
		return fmt.Errorf("authz: permission %q has a team role threshold but is not team-scoped", perm)
	}
	return nil
}

// Lookup returns the descriptor for a permission. Unknown permissions return
// ok=false; the engine turns that into a deny, never a panic.
func Lookup(perm Permission) (Descriptor, bool) {
	d, ok := catalog[perm]
	return d, ok
}

// Registered reports whether a permission exists in the catalog.
func Registered(perm Permission) bool {
	_, ok := catalog[perm]
	return ok
}

// Permissions returns every registered permission. Order is unspecified.
func Permissions() []Permission {
	perms := make([]Permission, 0, len(catalog))
	for p := range catalog {
		perms = append(perms, p)
	}
	return perms
}
