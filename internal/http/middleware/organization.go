package middleware

import (
	"context"
	"net/http"

	"fleetdesk-api/internal/auth"
	"fleetdesk-api/internal/http/httperr"
	"fleetdesk-api/internal/observability/logger"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const organizationIDKey contextKey = "organization_id"

const maxOrganizationIDLength = 64

// validateOrganizationIDFormat checks that an organization ID is safe to use
// in Redis keys, log fields and SQL parameters. Allowed: [A-Za-z0-9_-], max 64.
func validateOrganizationIDFormat(organizationID string) bool {
	if organizationID == "" || len(organizationID) > maxOrganizationIDLength {
		return false
	}
	for _, c := range organizationID {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

// OrganizationMiddleware validates organization access and prevents IDOR attacks.
// The {orgId} path parameter must match the organization baked into the JWT.
func OrganizationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.GetLogger(ctx)

		organizationID := chi.URLParam(r, "orgId")
		if organizationID == "" {
			log.Warn(ctx, "organization id not found in path",
				logger.Module("http"),
				logger.Action("organization_check"),
			)
			httperr.BadRequest400(w, ctx, httperr.ErrCodeMissingParameter, "organization id not found in path")
			return
		}

		if !validateOrganizationIDFormat(organizationID) {
			log.Warn(ctx, "invalid organization id format",
				logger.Module("http"),
				logger.Action("organization_check"),
				zap.Int("length", len(organizationID)),
			)
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidOrganizationID, "invalid organization id format")
			return
		}

		authCtx, ok := auth.GetAuthContext(ctx)
		if !ok {
			log.Error(ctx, "auth context not found",
				logger.Module("http"),
				logger.Action("organization_check"),
			)
			httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "unauthorized")
			return
		}

		// IDOR prevention: the token's organization must match the path parameter
		if authCtx.OrganizationID != "" && authCtx.OrganizationID != organizationID {
			log.Warn(ctx, "organization access denied",
				logger.Module("http"),
				logger.Action("organization_check"),
				zap.String("jwt_organization_id", authCtx.OrganizationID),
				zap.String("path_organization_id", organizationID),
				zap.String("user_id", authCtx.UserID),
			)
			httperr.Forbidden403(w, ctx, httperr.ErrCodeOrganizationMismatch, "organization access denied")
			return
		}

		span := trace.SpanFromContext(ctx)
		span.SetAttributes(attribute.String("organization_id", organizationID))

		ctx = context.WithValue(ctx, organizationIDKey, organizationID)
		ctx = logger.SetOrganizationIDInContext(ctx, organizationID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetOrganizationID retrieves the validated organization ID from context
func GetOrganizationID(ctx context.Context) (string, bool) {
	organizationID, ok := ctx.Value(organizationIDKey).(string)
	return organizationID, ok
}
