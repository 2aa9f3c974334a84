package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *KeyResolver {
	t.Helper()

	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))

	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)
	resolver := NewKeyResolver([]string{testIssuer}, []string{testAudience})
	resolver.RegisterValidator(testIssuer, validator)
	return resolver
}

func TestKeyResolver_ValidToken(t *testing.T) {
	resolver := newTestResolver(t)

	claims := &CustomClaims{
		OrganizationID: "org-12345",
		UserID:         "user-67890",
	}
	token := createTestToken(testSecret, claims, time.Now().Add(1*time.Hour))

	result, err := resolver.Resolve(token)

	require.NoError(t, err)
	assert.Equal(t, "org-12345", result.OrganizationID)
	assert.Equal(t, "user-67890", result.UserID)
	assert.Equal(t, testIssuer, result.Issuer)
}

func TestKeyResolver_InvalidIssuer(t *testing.T) {
	resolver := newTestResolver(t)

	claims := &CustomClaims{
		OrganizationID: "org-12345",
		UserID:         "user-67890",
	}
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    "unauthorized-issuer",
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(testSecret))

	result, err := resolver.Resolve(tokenString)

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureInvalidIssuer, authErr.Reason)
}

func TestKeyResolver_InvalidAudience(t *testing.T) {
	resolver := newTestResolver(t)

	claims := &CustomClaims{
		OrganizationID: "org-12345",
		UserID:         "user-67890",
	}
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{"wrong-audience"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(testSecret))

	result, err := resolver.Resolve(tokenString)

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureInvalidAudience, authErr.Reason)
}

func TestKeyResolver_NoValidatorForIssuer(t *testing.T) {
	// Resolver without a registered validator
	resolver := NewKeyResolver([]string{testIssuer}, []string{testAudience})

	claims := &CustomClaims{
		OrganizationID: "org-12345",
		UserID:         "user-67890",
	}
	token := createTestToken(testSecret, claims, time.Now().Add(1*time.Hour))

	result, err := resolver.Resolve(token)

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureInvalidIssuer, authErr.Reason)
	assert.Contains(t, authErr.Message, "no validator found")
}

func TestKeyResolver_MalformedToken(t *testing.T) {
	resolver := NewKeyResolver([]string{testIssuer}, []string{testAudience})

	result, err := resolver.Resolve("malformed-token")

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureUnknown, authErr.Reason)
}

func TestKeyResolver_EmptyKidFallback(t *testing.T) {
	resolver := newTestResolver(t)

	// Token without kid in header falls back to v1
	claims := &CustomClaims{
		OrganizationID: "org-12345",
		UserID:         "user-67890",
	}
	token := createTestToken(testSecret, claims, time.Now().Add(1*time.Hour))

	result, err := resolver.Resolve(token)

	require.NoError(t, err)
	assert.Equal(t, "org-12345", result.OrganizationID)
	assert.Equal(t, "user-67890", result.UserID)
}

func TestKeyResolver_IssuerMismatch(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key("issuer-a", "v1", []byte(testSecret))

	validator := NewHS256Validator(keyStore, "issuer-a", 60*time.Second)
	resolver := NewKeyResolver([]string{"issuer-a"}, []string{testAudience})
	resolver.RegisterValidator("issuer-a", validator)

	// Token claims issuer-b but is signed by issuer-a's key
	claims := &CustomClaims{
		OrganizationID: "org-12345",
		UserID:         "user-67890",
	}
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    "issuer-b",
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(testSecret))

	result, err := resolver.Resolve(tokenString)

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureInvalidIssuer, authErr.Reason)
}
