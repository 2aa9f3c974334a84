package authz

// Capabilities bundles related permission checks into per-domain sets the
// HTTP layer can hand to clients in one shot. Every field is computed by the
// same engine the write paths use; the facade adds no rules of its own.
type Capabilities struct {
	engine *Engine
	ctx    *OrganizationContext
}

// NewCapabilities wraps an engine and a context into a capability view.
func NewCapabilities(engine *Engine, ctx *OrganizationContext) *Capabilities {
	return &Capabilities{engine: engine, ctx: ctx}
}

// OrganizationCapabilities is the organization-level permission set.
type OrganizationCapabilities struct {
	CanView          bool `json:"canView"`
	CanManage        bool `json:"canManage"`
	CanDelete        bool `json:"canDelete"`
	CanInvite        bool `json:"canInvite"`
	CanCreateTeams   bool `json:"canCreateTeams"`
	CanManageBilling bool `json:"canManageBilling"`
	CanManageMembers bool `json:"canManageMembers"`
	CanViewAnalytics bool `json:"canViewAnalytics"`
	CanExportReports bool `json:"canExportReports"`
}

// Organization computes the organization-level permission set.
func (c *Capabilities) Organization() OrganizationCapabilities {
	return OrganizationCapabilities{
		CanView:          c.engine.Evaluate(PermOrganizationView, c.ctx, nil),
		CanManage:        c.engine.Evaluate(PermOrganizationManage, c.ctx, nil),
		CanDelete:        c.engine.Evaluate(PermOrganizationDelete, c.ctx, nil),
		CanInvite:        c.engine.Evaluate(PermOrganizationInvite, c.ctx, nil),
		CanCreateTeams:   c.engine.Evaluate(PermOrganizationCreateTeams, c.ctx, nil),
		CanManageBilling: c.engine.Evaluate(PermOrganizationBilling, c.ctx, nil),
		CanManageMembers: c.engine.Evaluate(PermOrganizationManageMembers, c.ctx, nil),
		CanViewAnalytics: c.engine.Evaluate(PermAnalyticsView, c.ctx, nil),
		CanExportReports: c.engine.Evaluate(PermReportsExport, c.ctx, nil),
	}
}

// EquipmentCapabilities is the equipment permission set for one team scope.
type EquipmentCapabilities struct {
	CanView      bool `json:"canView"`
	CanCreate    bool `json:"canCreate"`
	CanEdit      bool `json:"canEdit"`
	CanDelete    bool `json:"canDelete"`
	CanAddNotes  bool `json:"canAddNotes"`
	CanAddImages bool `json:"canAddImages"`
}

// Equipment computes the equipment permission set in the scope of one team.
// An empty teamID yields the org-role-only view (no team path can match).
func (c *Capabilities) Equipment(teamID string) EquipmentCapabilities {
	entity := &EntityContext{TeamID: teamID}
	return EquipmentCapabilities{
		CanView:      c.engine.Evaluate(PermEquipmentView, c.ctx, entity),
		CanCreate:    c.engine.Evaluate(PermEquipmentCreate, c.ctx, entity),
		CanEdit:      c.engine.Evaluate(PermEquipmentEdit, c.ctx, entity),
		CanDelete:    c.engine.Evaluate(PermEquipmentDelete, c.ctx, entity),
		CanAddNotes:  c.engine.Evaluate(PermEquipmentAddNotes, c.ctx, entity),
		CanAddImages: c.engine.Evaluate(PermEquipmentAddImages, c.ctx, entity),
	}
}

// EquipmentNoteCapabilities is the note permission set for one team scope.
type EquipmentNoteCapabilities struct {
	CanView         bool `json:"canView"`
	CanAddPublic    bool `json:"canAddPublic"`
	CanAddPrivate   bool `json:"canAddPrivate"`
	CanEditAny      bool `json:"canEditAny"`
	CanDeleteAny    bool `json:"canDeleteAny"`
	CanUploadImages bool `json:"canUploadImages"`
}

// EquipmentNotes computes the note permission set in the scope of one team.
func (c *Capabilities) EquipmentNotes(teamID string) EquipmentNoteCapabilities {
	entity := &EntityContext{TeamID: teamID}
	return EquipmentNoteCapabilities{
		CanView:         c.engine.Evaluate(PermEquipmentNoteView, c.ctx, entity),
		CanAddPublic:    c.engine.Evaluate(PermEquipmentNoteAddPublic, c.ctx, entity),
		CanAddPrivate:   c.engine.Evaluate(PermEquipmentNoteAddPrivate, c.ctx, entity),
		CanEditAny:      c.engine.Evaluate(PermEquipmentNoteEditAny, c.ctx, entity),
		CanDeleteAny:    c.engine.Evaluate(PermEquipmentNoteDeleteAny, c.ctx, entity),
		CanUploadImages: c.engine.Evaluate(PermEquipmentNoteUploadImages, c.ctx, entity),
	}
}

// WorkOrderCapabilities is the work-order permission set for one entity.
type WorkOrderCapabilities struct {
	CanView         bool `json:"canView"`
	CanCreate       bool `json:"canCreate"`
	CanEdit         bool `json:"canEdit"`
	CanAssign       bool `json:"canAssign"`
	CanDelete       bool `json:"canDelete"`
	CanChangeStatus bool `json:"canChangeStatus"`
}

// WorkOrders computes the work-order permission set against one entity. The
// entity may be nil for list-level checks; entity-relationship grants then
// simply cannot match.
func (c *Capabilities) WorkOrders(entity *EntityContext) WorkOrderCapabilities {
	return WorkOrderCapabilities{
		CanView:         c.engine.Evaluate(PermWorkOrderView, c.ctx, entity),
		CanCreate:       c.engine.Evaluate(PermWorkOrderCreate, c.ctx, entity),
		CanEdit:         c.engine.Evaluate(PermWorkOrderEdit, c.ctx, entity),
		CanAssign:       c.engine.Evaluate(PermWorkOrderAssign, c.ctx, entity),
		CanDelete:       c.engine.Evaluate(PermWorkOrderDelete, c.ctx, entity),
		CanChangeStatus: c.engine.Evaluate(PermWorkOrderChangeStatus, c.ctx, entity),
	}
}

// WorkOrderDetailCapabilities extends the work-order set with per-field edit
// flags for detail forms. The field flags deliberately alias CanEdit: editing
// the title, description or due date of a work order is one permission, and
// clients that render them separately must stay in lockstep with it.
type WorkOrderDetailCapabilities struct {
	WorkOrderCapabilities

	CanEditTitle       bool `json:"canEditTitle"`
	CanEditDescription bool `json:"canEditDescription"`
	CanEditDueDate     bool `json:"canEditDueDate"`
}

// WorkOrdersDetailed computes the extended work-order permission set.
func (c *Capabilities) WorkOrdersDetailed(entity *EntityContext) WorkOrderDetailCapabilities {
	base := c.WorkOrders(entity)
	return WorkOrderDetailCapabilities{
		WorkOrderCapabilities: base,
		CanEditTitle:          base.CanEdit,
		CanEditDescription:    base.CanEdit,
		CanEditDueDate:        base.CanEdit,
	}
}

// TeamCapabilities is the team permission set for one team.
type TeamCapabilities struct {
	CanView   bool `json:"canView"`
	CanManage bool `json:"canManage"`
}

// Team computes the team permission set for one team.
func (c *Capabilities) Team(teamID string) TeamCapabilities {
	entity := &EntityContext{TeamID: teamID}
	return TeamCapabilities{
		CanView:   c.engine.Evaluate(PermTeamView, c.ctx, entity),
		CanManage: c.engine.Evaluate(PermTeamManage, c.ctx, entity),
	}
}

// IsTeamMember reports whether the context user belongs to the team. Exposed
// for UI affordances that hinge on membership rather than a permission.
func (c *Capabilities) IsTeamMember(teamID string) bool {
	return c.ctx.IsTeamMember(teamID)
}

// Can answers a single permission question through the facade.
func (c *Capabilities) Can(perm Permission, entity *EntityContext) bool {
	return c.engine.Evaluate(perm, c.ctx, entity)
}
