package identitystub

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// IssueAccessToken mints an HS256 access token for a member, valid for the
// configured TTL from the stub's clock.
func (s *Server) IssueAccessToken(memberID string) (string, error) {
	now := s.nowFunc()
	claims := jwt.MapClaims{
		"sub":        memberID,
		"jti":        uuid.New().String(),
		"iat":        now.Unix(),
		"exp":        now.Add(s.accessTTL).Unix(),
		"token_type": "access",
	}
	signed, err := s.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Server.IssueAccessToken]")
	}
	return signed, nil
}

// issuePair mints an access token and registers a new opaque refresh token.
func (s *Server) issuePair(memberID string) (string, string, error) {
	access, err := s.IssueAccessToken(memberID)
	if err != nil {
		return "", "", err
	}
	refresh, err := generateRefreshToken()
	if err != nil {
		return "", "", err
	}

	s.lock.Lock()
	s.refreshTokens[refresh] = memberID
	s.lock.Unlock()

	return access, refresh, nil
}

// redeem looks up a refresh token. With rotation enabled the token is spent.
func (s *Server) redeem(refresh string) (string, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.revoked {
		return "", false
	}
	memberID, ok := s.refreshTokens[refresh]
	if ok && s.rotate {
		delete(s.refreshTokens, refresh)
	}
	return memberID, ok
}

func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[generateRefreshToken]")
	}
	return hex.EncodeToString(b), nil
}
