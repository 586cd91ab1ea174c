package credentials

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/token"
)

// DefaultSlot is the storage slot name used when none is configured.
const DefaultSlot = "session"

var (
	ErrIncomplete = errors.New("credentials must carry both access and refresh tokens")
	ErrMalformed  = errors.New("malformed session record")
)

// Record is what a Store holds: the credential pair and the cached identity.
type Record struct {
	Credentials Credentials
	Identity    identity.Identity
}

// Store persists at most one Record in a named slot. Operations are
// synchronous. Load never fails: absent or malformed data reads as no session,
// and malformed data is removed from the slot.
type Store interface {
	Load() *Record
	Save(creds Credentials, id identity.Identity) error
	Clear() error
}

type persistedRecord struct {
	Credentials *Credentials       `json:"credentials"`
	Identity    *identity.Identity `json:"identity"`
}

// Encode serialises a record into the persisted shape
// {"credentials": {"access", "refresh"}, "identity": {...}}.
func Encode(creds Credentials, id identity.Identity) ([]byte, error) {
	if !creds.Complete() {
		return nil, ErrIncomplete
	}
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return json.Marshal(persistedRecord{Credentials: &creds, Identity: &id})
}

// Decode parses a persisted record and derives the access expiry from the token.
func Decode(data []byte) (*Record, error) {
	var persisted persistedRecord
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if persisted.Credentials == nil || !persisted.Credentials.Complete() {
		return nil, fmt.Errorf("%w: missing credentials", ErrMalformed)
	}
	if persisted.Identity == nil {
		return nil, fmt.Errorf("%w: missing identity", ErrMalformed)
	}
	if err := persisted.Identity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	creds := *persisted.Credentials
	creds.AccessExpiry = token.ExpiryOrZero(creds.AccessToken)
	return &Record{Credentials: creds, Identity: *persisted.Identity}, nil
}
