package auth

import "context"

// SetAuthContextForTesting injects an AuthContext into a context for testing purposes
// This should only be used in tests to simulate authenticated requests
func SetAuthContextForTesting(ctx context.Context, authCtx *AuthContext) context.Context {
	ctx = context.WithValue(ctx, authContextKey, authCtx)
	return context.WithValue(ctx, claimsContextKey, &CustomClaims{
		OrganizationID: authCtx.OrganizationID,
		UserID:         authCtx.UserID,
	})
}
