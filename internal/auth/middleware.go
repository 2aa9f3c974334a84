package auth

import (
	"context"
	"net/http"
	"strings"

	"fleetdesk-api/internal/http/httperr"
	"fleetdesk-api/internal/observability/logger"

	"go.uber.org/zap"
)

type contextKey string

const (
	claimsContextKey contextKey = "claims"
	authContextKey   contextKey = "auth_context"
)

// AuthContext carries the authenticated identity through the request.
type AuthContext struct {
	OrganizationID string
	UserID         string
	AuthMethod     string
	Issuer         string
}

// mapAuthErrorToCode maps auth failure reasons to HTTP error codes
func mapAuthErrorToCode(authErr *AuthError) string {
	if authErr == nil {
		return httperr.ErrCodeInvalidToken
	}

	switch authErr.Reason {
	case AuthFailureMissingAuthorization:
		return httperr.ErrCodeMissingAuthorization
	case AuthFailureInvalidScheme:
		return httperr.ErrCodeInvalidScheme
	case AuthFailureInvalidSignature:
		return httperr.ErrCodeInvalidSignature
	case AuthFailureTokenExpired:
		return httperr.ErrCodeTokenExpired
	case AuthFailureInvalidIssuer:
		return httperr.ErrCodeInvalidIssuer
	case AuthFailureInvalidAudience:
		return httperr.ErrCodeInvalidAudience
	case AuthFailureOrganizationMismatch:
		return httperr.ErrCodeOrganizationMismatch
	default:
		return httperr.ErrCodeInvalidToken
	}
}

// AuthMiddleware validates JWT bearer tokens and injects claims into context
func AuthMiddleware(resolver *KeyResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Warn(r.Context(), "authentication failed",
					logger.Module("auth"),
					logger.Action("authenticate"),
					zap.String("auth_failure_reason", string(AuthFailureMissingAuthorization)),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				httperr.Unauthorized401(w, r.Context(), httperr.ErrCodeMissingAuthorization, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn(r.Context(), "authentication failed",
					logger.Module("auth"),
					logger.Action("authenticate"),
					zap.String("auth_failure_reason", string(AuthFailureInvalidScheme)),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				httperr.Unauthorized401(w, r.Context(), httperr.ErrCodeInvalidScheme, "invalid authorization scheme, expected Bearer")
				return
			}

			tokenString := parts[1]

			claims, err := resolver.Resolve(tokenString)
			if err != nil {
				authErr, ok := IsAuthError(err)
				failureReason := string(AuthFailureUnknown)
				if ok {
					failureReason = string(authErr.Reason)
				}

				// Token masked for security
				log.Warn(r.Context(), "authentication failed",
					logger.Module("auth"),
					logger.Action("authenticate"),
					zap.String("auth_failure_reason", failureReason),
					zap.String("token_prefix", maskToken(tokenString)),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				httperr.Unauthorized401(w, r.Context(), mapAuthErrorToCode(authErr), "invalid or expired token")
				return
			}

			authCtx := &AuthContext{
				OrganizationID: claims.OrganizationID,
				UserID:         claims.UserID,
				AuthMethod:     "jwt",
				Issuer:         claims.Issuer,
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			ctx = context.WithValue(ctx, authContextKey, authCtx)
			ctx = logger.SetUserIDInContext(ctx, claims.UserID)

			log.Info(ctx, "authenticated request",
				logger.Module("auth"),
				logger.Action("authenticate"),
				zap.String("organization_id", claims.OrganizationID),
				zap.String("issuer", claims.Issuer),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims retrieves claims from context
func GetClaims(ctx context.Context) (*CustomClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*CustomClaims)
	return claims, ok
}

// GetAuthContext retrieves the authenticated identity from context
func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	authCtx, ok := ctx.Value(authContextKey).(*AuthContext)
	return authCtx, ok
}
