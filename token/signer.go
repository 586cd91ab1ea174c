package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer signs and verifies JWT access tokens.
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.MapClaims) (string, error)

	// Verify parses a token and checks its signature and time based claims
	Verify(raw string) (jwt.MapClaims, error)
}

// HMACSigner implements Signer using symmetric HMAC-SHA256
type HMACSigner struct {
	secret []byte
	parser *jwt.Parser
}

var _ Signer = (*HMACSigner)(nil)

// NewHMACSigner creates a new HMAC signer with the given secret. Parser
// options (for example jwt.WithTimeFunc) are applied to verification.
func NewHMACSigner(secret string, opts ...jwt.ParserOption) *HMACSigner {
	opts = append([]jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}, opts...)
	return &HMACSigner{
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
	}
}

func (h *HMACSigner) Sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signedToken, nil
}

func (h *HMACSigner) Verify(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := h.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "invalid token")
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
