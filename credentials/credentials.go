// Package credentials defines the credential pair held by a client session and
// the Store contract used to persist it between process restarts.
package credentials

import (
	"time"

	"golang.org/x/oauth2"
)

// Credentials is the bearer token pair of an authenticated session. A value is
// either complete (both tokens present) or treated as absent.
type Credentials struct {
	AccessToken  string    `json:"access"`
	RefreshToken string    `json:"refresh"`
	AccessExpiry time.Time `json:"-"` // Decoded from the access token, zero when unknown
}

// Complete reports whether both tokens are present.
func (c Credentials) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// ExpiresWithin reports whether the access token expires within buffer of now,
// or has already expired. Tokens without a known expiry never do.
func (c Credentials) ExpiresWithin(now time.Time, buffer time.Duration) bool {
	if c.AccessExpiry.IsZero() {
		return false
	}
	return !now.Before(c.AccessExpiry.Add(-buffer))
}

// OAuth2Token converts the pair for use with golang.org/x/oauth2 consumers.
func (c Credentials) OAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       c.AccessExpiry,
	}
}
