package handler

import (
	"net/http"

	"fleetdesk-api/internal/authz"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/service"
)

// PermissionsHandler exposes the capability sets clients use to drive their
// UI. The sets are computed by the same engine that guards every write, so a
// button the client renders is a request the server will accept.
type PermissionsHandler struct {
	session *service.SessionService
}

func NewPermissionsHandler(session *service.SessionService) *PermissionsHandler {
	return &PermissionsHandler{session: session}
}

// permissionsResponse bundles the capability sets. Team-scoped sets are
// computed against the teamId query parameter; without one they reflect the
// organization role alone.
type permissionsResponse struct {
	Organization   authz.OrganizationCapabilities    `json:"organization"`
	Team           *authz.TeamCapabilities           `json:"team,omitempty"`
	Equipment      authz.EquipmentCapabilities       `json:"equipment"`
	EquipmentNotes authz.EquipmentNoteCapabilities   `json:"equipmentNotes"`
	WorkOrders     authz.WorkOrderDetailCapabilities `json:"workOrders"`
	IsTeamMember   *bool                             `json:"isTeamMember,omitempty"`
}

// GetPermissions handles GET /v1/orgs/{orgId}/permissions
func (h *PermissionsHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	caps, err := h.session.Capabilities(ctx, userID, organizationID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	teamID := r.URL.Query().Get("teamId")

	var entity *authz.EntityContext
	if teamID != "" {
		entity = &authz.EntityContext{TeamID: teamID}
	}

	resp := permissionsResponse{
		Organization:   caps.Organization(),
		Equipment:      caps.Equipment(teamID),
		EquipmentNotes: caps.EquipmentNotes(teamID),
		WorkOrders:     caps.WorkOrdersDetailed(entity),
	}
	if teamID != "" {
		team := caps.Team(teamID)
		resp.Team = &team
		isMember := caps.IsTeamMember(teamID)
		resp.IsTeamMember = &isMember
	}

	writeJSON(w, http.StatusOK, resp)
}
