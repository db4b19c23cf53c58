package models

import "github.com/golang-jwt/jwt/v5"

// Claims represents the bearer token issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims        // sub, exp, iat, ...
	Username             string `json:"username"`
	Email                string `json:"email"`
	Role                 string `json:"role"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}

// Principal is the authenticated caller of a request. Role is informational
// and never consulted for document-level decisions.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// PrincipalFromClaims builds a principal from verified claims.
func PrincipalFromClaims(c *Claims) *Principal {
	name := c.Username
	if name == "" {
		name = c.Email
	}
	return &Principal{ID: c.Subject, Username: name, Role: c.Role}
}
