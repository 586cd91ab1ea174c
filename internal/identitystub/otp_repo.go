package identitystub

import (
	"errors"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/authmodel"
)

// DefaultOTPTTL is how long an issued code stays redeemable.
const DefaultOTPTTL = 5 * time.Minute

var ErrOTPNotFound = errors.New("no pending code")

// PendingOTP is a code waiting to be verified.
type PendingOTP struct {
	Code     string
	Purpose  authmodel.OTPPurpose
	IssuedAt time.Time
}

// Expired reports whether the code is older than ttl at now.
func (p PendingOTP) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.IssuedAt) > ttl
}

type OTPRepo interface {
	Upsert(phone string, pending *PendingOTP) error
	Get(phone string) (*PendingOTP, error)
	Delete(phone string) error
}

// InMemoryOTPRepo keeps pending codes keyed by normalised phone number.
type InMemoryOTPRepo struct {
	mu      sync.RWMutex
	pending map[string]PendingOTP
}

var _ OTPRepo = (*InMemoryOTPRepo)(nil)

func NewInMemoryOTPRepo() *InMemoryOTPRepo {
	return &InMemoryOTPRepo{
		pending: make(map[string]PendingOTP),
	}
}

// Upsert replaces any code already pending for phone.
func (r *InMemoryOTPRepo) Upsert(phone string, pending *PendingOTP) error {
	if phone == "" {
		return errors.New("phone cannot be empty")
	}
	if pending == nil {
		return errors.New("pending code cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[phone] = *pending
	return nil
}

func (r *InMemoryOTPRepo) Get(phone string) (*PendingOTP, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pending, ok := r.pending[phone]
	if !ok {
		return nil, ErrOTPNotFound
	}
	return &pending, nil
}

func (r *InMemoryOTPRepo) Delete(phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, phone)
	return nil
}
