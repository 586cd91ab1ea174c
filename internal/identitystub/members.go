package identitystub

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMemberExists   = errors.New("member already exists")
	ErrMissingPhone   = errors.New("member needs a phone number")
	ErrMemberNotFound = errors.New("member not found")
)

// member is a registered principal. Members created through registration
// have no secret and can only sign in with a one-time code.
type member struct {
	identity   identity.Identity
	secretHash string
}

func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckSecretHash(secret, hash string) bool {
	if hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}

// AddMember registers a principal reachable by its phone number and, if set,
// its email. An empty secret creates an OTP-only member. The stored identity
// is returned with its generated id and timestamps.
func (s *Server) AddMember(secret string, id identity.Identity) (identity.Identity, error) {
	id.PhoneNumber = identity.NormalizePhone(id.PhoneNumber)
	if id.PhoneNumber == "" {
		return identity.Identity{}, ErrMissingPhone
	}

	var hash string
	if secret != "" {
		hashed, err := HashSecret(secret)
		if err != nil {
			return identity.Identity{}, err
		}
		hash = hashed
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, exists := s.identifiers[id.PhoneNumber]; exists {
		return identity.Identity{}, ErrMemberExists
	}

	if id.ID == "" {
		id.ID = uuid.New().String()
	}
	if id.KYCStatus == "" {
		id.KYCStatus = identity.KYCPending
	}
	if id.WalletBalance == "" {
		id.WalletBalance = "0.00"
	}
	now := s.nowFunc().UTC()
	if id.CreatedAt == nil {
		id.CreatedAt = utils.Ptr(now)
	}
	id.UpdatedAt = utils.Ptr(now)
	id.IsActive = true

	s.members[id.ID] = &member{identity: id, secretHash: hash}
	s.identifiers[id.PhoneNumber] = id.ID
	if id.Email != "" {
		s.identifiers[strings.ToLower(id.Email)] = id.ID
	}
	return id, nil
}

// UpdateMember replaces a member's profile, keeping its id and secret.
func (s *Server) UpdateMember(id identity.Identity) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	m, ok := s.members[id.ID]
	if !ok {
		return ErrMemberNotFound
	}
	m.identity = id
	return nil
}

func (s *Server) member(memberID string) (identity.Identity, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	m, ok := s.members[memberID]
	if !ok {
		return identity.Identity{}, false
	}
	return m.identity, true
}

// lookup resolves an identifier as given, lower-cased (emails) and as a
// normalised phone number.
func (s *Server) lookup(identifier string) (member, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	candidates := []string{
		strings.TrimSpace(identifier),
		strings.ToLower(strings.TrimSpace(identifier)),
		identity.NormalizePhone(identifier),
	}
	for _, candidate := range candidates {
		if memberID, ok := s.identifiers[candidate]; ok {
			return *s.members[memberID], true
		}
	}
	return member{}, false
}

func (s *Server) touchLogin(memberID string) identity.Identity {
	s.lock.Lock()
	defer s.lock.Unlock()

	m := s.members[memberID]
	m.identity.LastLogin = utils.Ptr(s.nowFunc().UTC())
	return m.identity
}
