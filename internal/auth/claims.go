package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims represents the custom JWT claims for the API
type CustomClaims struct {
	OrganizationID string `json:"organizationId"`
	UserID         string `json:"userId"`
	jwt.RegisteredClaims
}

// Validate performs additional validation on custom claims
func (c *CustomClaims) Validate() error {
	if c.OrganizationID == "" {
		return jwt.ErrTokenInvalidClaims
	}
	if c.UserID == "" {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}
