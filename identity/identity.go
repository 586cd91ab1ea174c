// Package identity holds the authenticated principal's profile as returned by
// the identity endpoints and cached alongside the session credentials.
package identity

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// KYCStatus is the verification state of a member.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

var ErrMissingID = errors.New("identity has no id")

// Identity is the authenticated principal's profile snapshot.
type Identity struct {
	ID                  string     `json:"id"`
	FullName            string     `json:"full_name"`
	PhoneNumber         string     `json:"phone_number"`
	Email               string     `json:"email,omitempty"`
	KYCStatus           KYCStatus  `json:"kyc_status"`
	IsActive            bool       `json:"is_active,omitempty"`
	IsStaff             bool       `json:"is_staff,omitempty"`
	WalletBalance       Amount     `json:"wallet_balance"`
	WalletUpdatedAt     *time.Time `json:"wallet_updated_at,omitempty"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	CreatedAt           *time.Time `json:"created_at,omitempty"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
	GroupsCount         int        `json:"groups_count,omitempty"`
	SavingsGoalCount    int        `json:"savings_goal_count,omitempty"`
	PendingTransactions int        `json:"pending_transactions,omitempty"`
}

// UnmarshalJSON defaults an absent KYC status to pending.
func (i *Identity) UnmarshalJSON(data []byte) error {
	type plain Identity
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.KYCStatus == "" {
		decoded.KYCStatus = KYCPending
	}
	*i = Identity(decoded)
	return nil
}

func (i Identity) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return ErrMissingID
	}
	return nil
}

func (i Identity) IsVerified() bool {
	return i.KYCStatus == KYCVerified
}

// Amount is a decimal money value. The admin API sends balances as strings and
// the member API as numbers, so both decode; it always encodes as a string.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*a = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*a = Amount(n.String())
	}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(a))
}

// Float64 returns the amount as a float, zero when it does not parse.
func (a Amount) Float64() float64 {
	f, err := strconv.ParseFloat(string(a), 64)
	if err != nil {
		return 0
	}
	return f
}
