package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fleetdesk-api/internal/auth"
	"fleetdesk-api/internal/http/httperr"
	"fleetdesk-api/internal/http/middleware"
	"fleetdesk-api/internal/observability/logger"
	"fleetdesk-api/internal/service"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Shared validator instance; validator.New caches struct metadata, so one
// instance serves all handlers.
var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// listResponse is the envelope for collection endpoints.
type listResponse struct {
	Data interface{} `json:"data"`
	Meta struct {
		HasNextPage bool    `json:"hasNextPage"`
		NextCursor  *string `json:"nextCursor,omitempty"`
	} `json:"meta"`
}

func writeList(w http.ResponseWriter, data interface{}, nextCursor string) {
	resp := listResponse{Data: data}
	if nextCursor != "" {
		resp.Meta.HasNextPage = true
		resp.Meta.NextCursor = &nextCursor
	}
	writeJSON(w, http.StatusOK, resp)
}

// requestIdentity extracts the organization from the validated path and the
// user from the auth context. Both middlewares run before any handler, so a
// miss here means a wiring bug, not a client error.
func requestIdentity(w http.ResponseWriter, r *http.Request) (organizationID, userID string, ok bool) {
	ctx := r.Context()

	organizationID, found := middleware.GetOrganizationID(ctx)
	if !found {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeMissingParameter, "organization ID is required")
		return "", "", false
	}

	authCtx, found := auth.GetAuthContext(ctx)
	if !found || authCtx.UserID == "" {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication context not found")
		return "", "", false
	}

	return organizationID, authCtx.UserID, true
}

// decodeAndValidate parses the JSON body into req and runs struct validation,
// answering the request itself on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		log.Error(ctx, "failed to decode request body", zap.Error(err))
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "request body must be valid JSON")
		return false
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[strings.ToLower(fe.Field()[:1])+fe.Field()[1:]] = "failed validation: " + fe.Tag()
			}
			httperr.BadRequest400WithFields(w, ctx, httperr.ErrCodeValidationError, "request validation failed", fields)
			return false
		}
		httperr.BadRequest400(w, ctx, httperr.ErrCodeValidationError, "request validation failed")
		return false
	}

	return true
}

// handleServiceError maps service errors shared across all resources to HTTP
// responses. Resource handlers catch their own not-found and conflict errors
// first and fall back here.
func handleServiceError(w http.ResponseWriter, ctx context.Context, log *logger.Logger, err error) {
	logger.SetRootError(ctx, err)

	if feature, ok := service.FeatureNotAvailable(err); ok {
		httperr.Forbidden403(w, ctx, httperr.ErrCodeFeatureNotAvailable, "feature not available on current plan: "+feature)
		return
	}

	switch {
	case errors.Is(err, service.ErrMemberNotFound):
		httperr.Forbidden403(w, ctx, httperr.ErrCodeForbidden, "no active membership in this organization")
	case errors.Is(err, service.ErrForbidden):
		httperr.Forbidden403(w, ctx, httperr.ErrCodeForbidden, "insufficient permissions for this action")
	case errors.Is(err, service.ErrOrganizationNotFound):
		httperr.NotFound404(w, ctx, "organization not found")
	case errors.Is(err, service.ErrTeamNotFound):
		httperr.NotFound404(w, ctx, "team not found")
	case errors.Is(err, service.ErrEquipmentNotFound):
		httperr.NotFound404(w, ctx, "equipment not found")
	case errors.Is(err, service.ErrWorkOrderNotFound):
		httperr.NotFound404(w, ctx, "work order not found")
	case errors.Is(err, service.ErrNoteNotFound):
		httperr.NotFound404(w, ctx, "note not found")
	default:
		log.Error(ctx, "unexpected service error", zap.Error(err))
		httperr.InternalError(w, ctx)
	}
}
