package credentials_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/stretchr/testify/require"
)

func TestCredentials_ExpiresWithin(t *testing.T) {
	now := time.Unix(1700000000, 0)
	buffer := 45 * time.Second

	tests := []struct {
		name   string
		expiry time.Time
		want   bool
	}{
		{"far future", now.Add(time.Hour), false},
		{"just outside buffer", now.Add(46 * time.Second), false},
		{"on the buffer edge", now.Add(45 * time.Second), true},
		{"inside buffer", now.Add(10 * time.Second), true},
		{"already expired", now.Add(-time.Minute), true},
		{"unknown expiry", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := credentials.Credentials{AccessToken: "a", RefreshToken: "r", AccessExpiry: tt.expiry}
			require.Equal(t, tt.want, c.ExpiresWithin(now, buffer))
		})
	}
}

func TestCredentials_OAuth2Token(t *testing.T) {
	exp := time.Unix(1700000000, 0)
	tok := credentials.Credentials{AccessToken: "a", RefreshToken: "r", AccessExpiry: exp}.OAuth2Token()
	require.Equal(t, "a", tok.AccessToken)
	require.Equal(t, "r", tok.RefreshToken)
	require.Equal(t, "Bearer", tok.Type())
	require.Equal(t, exp, tok.Expiry)
}

func TestEncodeDecode(t *testing.T) {
	id := identity.Identity{ID: "1", FullName: "Ama", KYCStatus: identity.KYCPending, WalletBalance: "5.00"}

	t.Run("incomplete credentials rejected", func(t *testing.T) {
		_, err := credentials.Encode(credentials.Credentials{AccessToken: "a"}, id)
		require.ErrorIs(t, err, credentials.ErrIncomplete)
	})

	t.Run("identity without id rejected", func(t *testing.T) {
		_, err := credentials.Encode(credentials.Credentials{AccessToken: "a", RefreshToken: "r"}, identity.Identity{})
		require.ErrorIs(t, err, credentials.ErrMalformed)
	})

	t.Run("persisted shape", func(t *testing.T) {
		data, err := credentials.Encode(credentials.Credentials{AccessToken: "a", RefreshToken: "r"}, id)
		require.NoError(t, err)
		require.JSONEq(t, `{
			"credentials": {"access": "a", "refresh": "r"},
			"identity": {"id": "1", "full_name": "Ama", "phone_number": "", "kyc_status": "pending", "wallet_balance": "5.00"}
		}`, string(data))
	})

	t.Run("malformed inputs", func(t *testing.T) {
		for _, raw := range []string{
			`{not json`,
			`{}`,
			`{"credentials":{"access":"a"},"identity":{"id":"1"}}`,
			`{"credentials":{"access":"a","refresh":"r"}}`,
			`{"credentials":{"access":"a","refresh":"r"},"identity":{"full_name":"x"}}`,
		} {
			_, err := credentials.Decode([]byte(raw))
			require.ErrorIs(t, err, credentials.ErrMalformed, raw)
		}
	})
}
