package models

import "github.com/golang-jwt/jwt/v5"

// CurrentUser is the signed-in user as reported by the identity provider.
type CurrentUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// IdentityClaims is the access-token payload issued by the identity provider.
// The subject claim carries the user id.
type IdentityClaims struct {
	DisplayName string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// User converts verified claims into the current user.
func (c *IdentityClaims) User() *CurrentUser {
	if c == nil {
		return nil
	}
	return &CurrentUser{ID: c.Subject, DisplayName: c.DisplayName, Email: c.Email}
}
