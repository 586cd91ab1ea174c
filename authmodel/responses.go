package authmodel

import (
	"github.com/jrsteele09/go-auth-client/identity"
)

// TokenResponse is returned by a successful login or OTP verification.
type TokenResponse struct {
	// Access is the short-lived bearer token.
	// Usage: Include in Authorization header: "Bearer <access>"
	Access string `json:"access"`

	// Refresh is exchanged at /auth/token/refresh for a new access token.
	Refresh string `json:"refresh"`

	// Identity is the authenticated principal. Older deployments send it as "user".
	Identity *identity.Identity `json:"identity,omitempty"`
	User     *identity.Identity `json:"user,omitempty"`
}

// Principal returns whichever of Identity or User the server populated.
func (t TokenResponse) Principal() *identity.Identity {
	if t.Identity != nil {
		return t.Identity
	}
	return t.User
}

// Complete reports whether the response carries both tokens and an identity.
func (t TokenResponse) Complete() bool {
	return t.Access != "" && t.Refresh != "" && t.Principal() != nil
}

// RefreshResponse is returned by a successful refresh. Refresh is only present
// when the server rotates refresh tokens.
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// RegisterResponse is returned by POST /auth/register.
type RegisterResponse struct {
	Message string             `json:"message,omitempty"`
	User    *identity.Identity `json:"user,omitempty"`
}

// ErrorResponse is the error body the identity endpoints send on failure.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
