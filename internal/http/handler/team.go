package handler

import (
	"errors"
	"net/http"

	"fleetdesk-api/internal/domain"
	"fleetdesk-api/internal/http/httperr"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TeamHandler struct {
	service *service.TeamService
}

func NewTeamHandler(service *service.TeamService) *TeamHandler {
	return &TeamHandler{service: service}
}

// teamID extracts the teamId path parameter, answering the request on miss.
func teamID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "teamId")
	if id == "" {
		httperr.BadRequest400(w, r.Context(), httperr.ErrCodeInvalidParameter, "teamId is required")
		return "", false
	}
	return id, true
}

// ListTeams handles GET /v1/orgs/{orgId}/teams
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	teams, err := h.service.List(ctx, organizationID, userID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeList(w, teams, "")
}

// CreateTeam handles POST /v1/orgs/{orgId}/teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req domain.CreateTeamRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	team, err := h.service.Create(ctx, organizationID, userID, req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "team created",
		zap.String("organizationId", organizationID),
		zap.String("teamId", team.ID),
	)

	writeJSON(w, http.StatusCreated, team)
}

// GetTeam handles GET /v1/orgs/{orgId}/teams/{teamId}
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := teamID(w, r)
	if !ok {
		return
	}

	team, err := h.service.Get(ctx, organizationID, userID, id)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, team)
}

// UpdateTeam handles PATCH /v1/orgs/{orgId}/teams/{teamId}
func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := teamID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateTeamRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	team, err := h.service.Update(ctx, organizationID, userID, id, req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "team updated",
		zap.String("organizationId", organizationID),
		zap.String("teamId", id),
	)

	writeJSON(w, http.StatusOK, team)
}

// DeleteTeam handles DELETE /v1/orgs/{orgId}/teams/{teamId}
func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := teamID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, organizationID, userID, id); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "team deleted",
		zap.String("organizationId", organizationID),
		zap.String("teamId", id),
	)

	w.WriteHeader(http.StatusNoContent)
}

// ListTeamMembers handles GET /v1/orgs/{orgId}/teams/{teamId}/members
func (h *TeamHandler) ListTeamMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := teamID(w, r)
	if !ok {
		return
	}

	members, err := h.service.ListMembers(ctx, organizationID, userID, id)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeList(w, members, "")
}

// AddTeamMember handles POST /v1/orgs/{orgId}/teams/{teamId}/members
func (h *TeamHandler) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := teamID(w, r)
	if !ok {
		return
	}

	var req domain.AddTeamMemberRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	member, err := h.service.AddMember(ctx, organizationID, userID, id, req)
	if err != nil {
		if errors.Is(err, service.ErrTeamMemberConflict) {
			httperr.Conflict409(w, ctx, "user is already a member of this team")
			return
		}
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "team member added",
		zap.String("organizationId", organizationID),
		zap.String("teamId", id),
		zap.String("memberUserId", req.UserID),
	)

	writeJSON(w, http.StatusCreated, member)
}

// UpdateTeamMember handles PATCH /v1/orgs/{orgId}/teams/{teamId}/members/{userId}
func (h *TeamHandler) UpdateTeamMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := teamID(w, r)
	if !ok {
		return
	}

	memberUserID := chi.URLParam(r, "userId")
	if memberUserID == "" {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "userId is required")
		return
	}

	var req domain.UpdateTeamMemberRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	member, err := h.service.UpdateMember(ctx, organizationID, userID, id, memberUserID, req)
	if err != nil {
		if errors.Is(err, service.ErrTeamMemberNotFound) {
			httperr.NotFound404(w, ctx, "team member not found")
			return
		}
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "team member updated",
		zap.String("organizationId", organizationID),
		zap.String("teamId", id),
		zap.String("memberUserId", memberUserID),
	)

	writeJSON(w, http.StatusOK, member)
}

// RemoveTeamMember handles DELETE /v1/orgs/{orgId}/teams/{teamId}/members/{userId}
func (h *TeamHandler) RemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := teamID(w, r)
	if !ok {
		return
	}

	memberUserID := chi.URLParam(r, "userId")
	if memberUserID == "" {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "userId is required")
		return
	}

	if err := h.service.RemoveMember(ctx, organizationID, userID, id, memberUserID); err != nil {
		if errors.Is(err, service.ErrTeamMemberNotFound) {
			httperr.NotFound404(w, ctx, "team member not found")
			return
		}
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "team member removed",
		zap.String("organizationId", organizationID),
		zap.String("teamId", id),
		zap.String("memberUserId", memberUserID),
	)

	w.WriteHeader(http.StatusNoContent)
}
