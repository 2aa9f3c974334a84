package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"fleetdesk-api/internal/auth"
	"fleetdesk-api/internal/observability/logger"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugHandler_GetAuthDebug_ProductionBlocked(t *testing.T) {
	// Save original APP_ENV and restore after test
	originalEnv := os.Getenv("APP_ENV")
	defer os.Setenv("APP_ENV", originalEnv)

	os.Setenv("APP_ENV", "production")

	handler := NewDebugHandler(nil)

	req := httptest.NewRequest("GET", "/debug/auth", nil)
	req = req.WithContext(logger.WithLogger(context.Background()))

	// Set auth context (even with valid auth, should return 404 in production)
	authCtx := &auth.AuthContext{
		AuthMethod:     "jwt",
		OrganizationID: "org-123",
		UserID:         "user-456",
		Issuer:         "fleetdesk-web",
	}
	req = req.WithContext(auth.SetAuthContextForTesting(req.Context(), authCtx))

	rec := httptest.NewRecorder()
	handler.GetAuthDebug(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code, "should return 404 in production")
}

func TestDebugHandler_GetAuthDebug_DevAllowed(t *testing.T) {
	// Save original APP_ENV and restore after test
	originalEnv := os.Getenv("APP_ENV")
	defer os.Setenv("APP_ENV", originalEnv)

	os.Setenv("APP_ENV", "dev")

	handler := NewDebugHandler(nil)

	req := httptest.NewRequest("GET", "/debug/auth", nil)
	req = req.WithContext(logger.WithLogger(context.Background()))

	authCtx := &auth.AuthContext{
		AuthMethod:     "jwt",
		OrganizationID: "org-123",
		UserID:         "user-456",
		Issuer:         "fleetdesk-web",
	}
	req = req.WithContext(auth.SetAuthContextForTesting(req.Context(), authCtx))

	rec := httptest.NewRecorder()
	handler.GetAuthDebug(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response DebugAuthResponse
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)

	assert.True(t, response.OK)
	assert.NotNil(t, response.Data)
	assert.Equal(t, "jwt", response.Data.AuthMethod)
	assert.Equal(t, "user-456", response.Data.UserID)
	assert.NotNil(t, response.Data.OrganizationIDFromToken)
	assert.Equal(t, "org-123", *response.Data.OrganizationIDFromToken)
	assert.NotNil(t, response.Data.TokenIssuer)
	assert.Equal(t, "fleetdesk-web", *response.Data.TokenIssuer)
	assert.True(t, response.Data.OrganizationValidationPass)
}

func TestDebugHandler_GetAuthDebug_NoAuth(t *testing.T) {
	// Save original APP_ENV and restore after test
	originalEnv := os.Getenv("APP_ENV")
	defer os.Setenv("APP_ENV", originalEnv)

	os.Setenv("APP_ENV", "dev")

	handler := NewDebugHandler(nil)

	req := httptest.NewRequest("GET", "/debug/auth", nil)
	req = req.WithContext(logger.WithLogger(context.Background()))

	// No auth context set

	rec := httptest.NewRecorder()
	handler.GetAuthDebug(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Validate error response structure
	var errResponse map[string]interface{}
	err := json.NewDecoder(rec.Body).Decode(&errResponse)
	require.NoError(t, err)

	assert.False(t, errResponse["ok"].(bool))
	assert.NotNil(t, errResponse["error"])
}

func TestDebugHandler_GetAuthDebug_TokenWithoutOrganization(t *testing.T) {
	// Save original APP_ENV and restore after test
	originalEnv := os.Getenv("APP_ENV")
	defer os.Setenv("APP_ENV", originalEnv)

	os.Setenv("APP_ENV", "development") // Test with "development" as well

	handler := NewDebugHandler(nil)

	req := httptest.NewRequest("GET", "/debug/auth", nil)
	req = req.WithContext(logger.WithLogger(context.Background()))

	// Token that carries no organization claim
	authCtx := &auth.AuthContext{
		AuthMethod: "jwt",
		UserID:     "user-abc-123",
		Issuer:     "fleetdesk-web",
	}
	req = req.WithContext(auth.SetAuthContextForTesting(req.Context(), authCtx))

	rec := httptest.NewRecorder()
	handler.GetAuthDebug(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response DebugAuthResponse
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)

	assert.True(t, response.OK)
	data := response.Data
	assert.Equal(t, "jwt", data.AuthMethod)
	assert.Equal(t, "user-abc-123", data.UserID)
	assert.Nil(t, data.OrganizationIDFromToken)
	assert.NotNil(t, data.TokenIssuer)
	assert.Equal(t, "fleetdesk-web", *data.TokenIssuer)
}

func TestDebugHandler_GetAuthDebugWithOrganization(t *testing.T) {
	// Save original APP_ENV and restore after test
	originalEnv := os.Getenv("APP_ENV")
	defer os.Setenv("APP_ENV", originalEnv)

	os.Setenv("APP_ENV", "dev")

	handler := NewDebugHandler(nil)

	// Create router to test path parameter extraction
	r := chi.NewRouter()
	r.Get("/debug/auth/orgs/{orgId}", handler.GetAuthDebugWithOrganization)

	req := httptest.NewRequest("GET", "/debug/auth/orgs/test-org-456", nil)
	req = req.WithContext(logger.WithLogger(context.Background()))

	authCtx := &auth.AuthContext{
		AuthMethod:     "jwt",
		OrganizationID: "test-org-456",
		UserID:         "user-999",
		Issuer:         "fleetdesk-web",
	}
	req = req.WithContext(auth.SetAuthContextForTesting(req.Context(), authCtx))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response DebugAuthResponse
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)

	assert.True(t, response.OK)
	data := response.Data
	assert.Equal(t, "jwt", data.AuthMethod)
	assert.NotNil(t, data.OrganizationIDFromPath)
	assert.Equal(t, "test-org-456", *data.OrganizationIDFromPath)
	assert.NotNil(t, data.OrganizationIDFromToken)
	assert.Equal(t, "test-org-456", *data.OrganizationIDFromToken)
	assert.True(t, data.OrganizationValidationPass)
}

func TestDebugHandler_DefaultAppEnv(t *testing.T) {
	// Save original APP_ENV and restore after test
	originalEnv := os.Getenv("APP_ENV")
	defer func() {
		if originalEnv != "" {
			os.Setenv("APP_ENV", originalEnv)
		} else {
			os.Unsetenv("APP_ENV")
		}
	}()

	// Unset APP_ENV to test default behavior
	os.Unsetenv("APP_ENV")

	handler := NewDebugHandler(nil)

	// Default should be "production" for safety
	assert.Equal(t, "production", handler.appEnv)

	req := httptest.NewRequest("GET", "/debug/auth", nil)
	req = req.WithContext(logger.WithLogger(context.Background()))

	authCtx := &auth.AuthContext{
		AuthMethod:     "jwt",
		OrganizationID: "org-123",
		UserID:         "user-456",
	}
	req = req.WithContext(auth.SetAuthContextForTesting(req.Context(), authCtx))

	rec := httptest.NewRecorder()
	handler.GetAuthDebug(rec, req)

	// Should return 404 since default is production
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
