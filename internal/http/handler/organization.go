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

type OrganizationHandler struct {
	service *service.OrganizationService
}

func NewOrganizationHandler(service *service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{service: service}
}

// GetOrganization handles GET /v1/orgs/{orgId}
func (h *OrganizationHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	org, err := h.service.Get(ctx, organizationID, userID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, org)
}

// UpdateOrganization handles PATCH /v1/orgs/{orgId}
func (h *OrganizationHandler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req domain.UpdateOrganizationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	org, err := h.service.Update(ctx, organizationID, userID, req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "organization updated",
		zap.String("organizationId", organizationID),
		zap.String("userId", userID),
	)

	writeJSON(w, http.StatusOK, org)
}

// DeleteOrganization handles DELETE /v1/orgs/{orgId}
func (h *OrganizationHandler) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, organizationID, userID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "organization deleted",
		zap.String("organizationId", organizationID),
		zap.String("userId", userID),
	)

	w.WriteHeader(http.StatusNoContent)
}

// ListMembers handles GET /v1/orgs/{orgId}/members
func (h *OrganizationHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	members, err := h.service.ListMembers(ctx, organizationID, userID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeList(w, members, "")
}

// InviteMember handles POST /v1/orgs/{orgId}/members
func (h *OrganizationHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req domain.InviteMemberRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	member, err := h.service.InviteMember(ctx, organizationID, userID, req)
	if err != nil {
		if errors.Is(err, service.ErrMemberConflict) {
			httperr.Conflict409(w, ctx, "user is already a member of this organization")
			return
		}
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "member invited",
		zap.String("organizationId", organizationID),
		zap.String("invitedUserId", req.UserID),
		zap.String("role", string(req.Role)),
	)

	writeJSON(w, http.StatusCreated, member)
}

// UpdateMember handles PATCH /v1/orgs/{orgId}/members/{userId}
func (h *OrganizationHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	memberUserID := chi.URLParam(r, "userId")
	if memberUserID == "" {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "userId is required")
		return
	}

	var req domain.UpdateMemberRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	member, err := h.service.UpdateMember(ctx, organizationID, userID, memberUserID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLastOwner):
			httperr.Conflict409(w, ctx, "organization must keep at least one active owner")
		case errors.Is(err, service.ErrTargetMemberNotFound):
			httperr.NotFound404(w, ctx, "member not found")
		default:
			handleServiceError(w, ctx, log, err)
		}
		return
	}

	log.Info(ctx, "member updated",
		zap.String("organizationId", organizationID),
		zap.String("memberUserId", memberUserID),
	)

	writeJSON(w, http.StatusOK, member)
}

// RemoveMember handles DELETE /v1/orgs/{orgId}/members/{userId}
func (h *OrganizationHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	memberUserID := chi.URLParam(r, "userId")
	if memberUserID == "" {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "userId is required")
		return
	}

	if err := h.service.RemoveMember(ctx, organizationID, userID, memberUserID); err != nil {
		switch {
		case errors.Is(err, service.ErrLastOwner):
			httperr.Conflict409(w, ctx, "organization must keep at least one active owner")
		case errors.Is(err, service.ErrTargetMemberNotFound):
			httperr.NotFound404(w, ctx, "member not found")
		default:
			handleServiceError(w, ctx, log, err)
		}
		return
	}

	log.Info(ctx, "member removed",
		zap.String("organizationId", organizationID),
		zap.String("memberUserId", memberUserID),
	)

	w.WriteHeader(http.StatusNoContent)
}

// ListFeatures handles GET /v1/orgs/{orgId}/features
func (h *OrganizationHandler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	organizationID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	features, err := h.service.ListFeatures(ctx, organizationID, userID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeList(w, features, "")
}
