package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-secret-key-must-be-at-least-32-chars-long-for-hmac"
	testIssuer   = "fleetdesk-web"
	testAudience = "fleetdesk-api"
)

// Helper function to create a valid JWT token for testing
func createTestToken(secret string, claims *CustomClaims, exp time.Time) string {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(secret))
	return tokenString
}

func TestHS256Validator_ValidToken(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)

	claims := &CustomClaims{
		OrganizationID: "org-12345",
		UserID:         "user-67890",
	}
	token := createTestToken(testSecret, claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token, "v1")

	require.NoError(t, err)
	assert.Equal(t, "org-12345", result.OrganizationID)
	assert.Equal(t, "user-67890", result.UserID)
	assert.Equal(t, testIssuer, result.Issuer)
}

func TestHS256Validator_InvalidSignature(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)

	// Token signed with a different secret
	wrongSecret := "wrong-secret-key-must-be-at-least-32-chars-long"
	claims := &CustomClaims{
		OrganizationID: "org-12345",
		UserID:         "user-67890",
	}
	token := createTestToken(wrongSecret, claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token, "v1")

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureInvalidSignature, authErr.Reason)
}

func TestHS256Validator_ExpiredToken(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 5*time.Second) // Short clock skew

	// Expired 10 seconds ago, beyond clock skew
	claims := &CustomClaims{
		OrganizationID: "org-12345",
		UserID:         "user-67890",
	}
	token := createTestToken(testSecret, claims, time.Now().Add(-10*time.Second))

	result, err := validator.Validate(token, "v1")

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureTokenExpired, authErr.Reason)
}

func TestHS256Validator_ExpiredTokenWithinClockSkew(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)

	// Expired 30 seconds ago, within the 60 second clock skew
	claims := &CustomClaims{
		OrganizationID: "org-12345",
		UserID:         "user-67890",
	}
	token := createTestToken(testSecret, claims, time.Now().Add(-30*time.Second))

	result, err := validator.Validate(token, "v1")

	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "org-12345", result.OrganizationID)
}

func TestHS256Validator_MissingOrganizationID(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)

	claims := &CustomClaims{
		OrganizationID: "", // Missing
		UserID:         "user-67890",
	}
	token := createTestToken(testSecret, claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token, "v1")

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureUnknown, authErr.Reason)
}

func TestHS256Validator_MissingUserID(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)

	claims := &CustomClaims{
		OrganizationID: "org-12345",
		UserID:         "", // Missing
	}
	token := createTestToken(testSecret, claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token, "v1")

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureUnknown, authErr.Reason)
}

func TestHS256Validator_InvalidKID(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)

	claims := &CustomClaims{
		OrganizationID: "org-12345",
		UserID:         "user-67890",
	}
	token := createTestToken(testSecret, claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token, "v2") // Wrong kid

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "key not found")
}

func TestHS256Validator_MalformedToken(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)

	result, err := validator.Validate("not.a.valid.jwt.token", "v1")

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureUnknown, authErr.Reason)
}

func TestHS256Validator_WrongAlgorithm(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)

	// HS512 instead of HS256
	claims := &CustomClaims{
		OrganizationID: "org-12345",
		UserID:         "user-67890",
	}
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
	}

	longSecret := "test-secret-key-must-be-at-least-64-chars-long-for-hmac-sha512-algorithm"
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	tokenString, _ := token.SignedString([]byte(longSecret))

	result, err := validator.Validate(tokenString, "v1")

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	// Could be invalid signature or parse error depending on the jwt library path
	assert.True(t, authErr.Reason == AuthFailureInvalidSignature || authErr.Reason == AuthFailureUnknown)
}
