// Package token reads the claims the client needs from opaque bearer tokens
// and signs tokens for the in-repo identity stub.
package token

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var (
	ErrMalformedToken = errors.New("malformed access token")
	ErrNoExpiry       = errors.New("access token carries no expiry claim")
)

// Expiry returns the absolute expiry encoded in the access token's "exp" claim.
// The signature is not verified: the client only needs the timestamp to decide
// when to refresh, and the server remains the authority on validity.
// Both numeric and string encoded claims are accepted.
func Expiry(accessToken string) (time.Time, error) {
	if strings.Count(accessToken, ".") != 2 {
		return time.Time{}, ErrMalformedToken
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, errors.Wrap(ErrMalformedToken, err.Error())
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return time.Time{}, ErrMalformedToken
	}

	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), nil
	case string:
		seconds, err := strconv.ParseInt(strings.TrimSpace(exp), 10, 64)
		if err != nil {
			return time.Time{}, ErrNoExpiry
		}
		return time.Unix(seconds, 0), nil
	default:
		return time.Time{}, ErrNoExpiry
	}
}

// ExpiryOrZero is Expiry with failures collapsed into the zero time.
func ExpiryOrZero(accessToken string) time.Time {
	exp, err := Expiry(accessToken)
	if err != nil {
		return time.Time{}
	}
	return exp
}
