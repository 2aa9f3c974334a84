package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator validates JWT tokens
type TokenValidator interface {
	Validate(tokenString string, kid string) (*CustomClaims, error)
}

// HS256Validator validates HS256 session tokens issued by a single issuer.
// Signing keys come from the shared KeyStore, selected by kid.
type HS256Validator struct {
	keyStore  *KeyStore
	issuer    string
	clockSkew time.Duration
}

// NewHS256Validator creates a new HS256 validator
func NewHS256Validator(keyStore *KeyStore, issuer string, clockSkew time.Duration) *HS256Validator {
	return &HS256Validator{
		keyStore:  keyStore,
		issuer:    issuer,
		clockSkew: clockSkew,
	}
}

// Validate parses and verifies an HS256 token, returning its claims.
func (v *HS256Validator) Validate(tokenString string, kid string) (*CustomClaims, error) {
	secret, ok := v.keyStore.GetHS256Key(v.issuer, kid)
	if !ok {
		return nil, fmt.Errorf("key not found for issuer %s and kid %s", v.issuer, kid)
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithLeeway(v.clockSkew))

	return checkedClaims(token, err)
}

// checkedClaims maps jwt parse results onto AuthErrors and enforces the
// custom claim requirements (userId and organizationId must be present).
func checkedClaims(token *jwt.Token, err error) (*CustomClaims, error) {
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewAuthError(AuthFailureTokenExpired, "token expired", err)
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, NewAuthError(AuthFailureInvalidSignature, "invalid signature", err)
		}
		return nil, NewAuthError(AuthFailureUnknown, "failed to parse token", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, NewAuthError(AuthFailureUnknown, fmt.Sprintf("invalid token: valid=%v", token.Valid), nil)
	}

	if err := claims.Validate(); err != nil {
		return nil, NewAuthError(AuthFailureUnknown, "invalid claims", err)
	}

	return claims, nil
}
