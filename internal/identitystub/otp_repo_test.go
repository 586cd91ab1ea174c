package identitystub_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/internal/identitystub"
	"github.com/stretchr/testify/require"
)

func TestInMemoryOTPRepo(t *testing.T) {
	repo := identitystub.NewInMemoryOTPRepo()
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.Error(t, repo.Upsert("", &identitystub.PendingOTP{Code: "1"}))
	require.Error(t, repo.Upsert("+233200000000", nil))

	_, err := repo.Get("+233200000000")
	require.ErrorIs(t, err, identitystub.ErrOTPNotFound)

	require.NoError(t, repo.Upsert("+233200000000", &identitystub.PendingOTP{Code: "111111", Purpose: authmodel.OTPLogin, IssuedAt: issued}))
	require.NoError(t, repo.Upsert("+233200000000", &identitystub.PendingOTP{Code: "222222", Purpose: authmodel.OTPLogin, IssuedAt: issued}))

	pending, err := repo.Get("+233200000000")
	require.NoError(t, err)
	require.Equal(t, "222222", pending.Code)

	pending.Code = "changed"
	again, err := repo.Get("+233200000000")
	require.NoError(t, err)
	require.Equal(t, "222222", again.Code)

	require.False(t, again.Expired(issued.Add(5*time.Minute), 5*time.Minute))
	require.True(t, again.Expired(issued.Add(5*time.Minute+time.Second), 5*time.Minute))

	require.NoError(t, repo.Delete("+233200000000"))
	_, err = repo.Get("+233200000000")
	require.ErrorIs(t, err, identitystub.ErrOTPNotFound)
}

func TestOTPExpires(t *testing.T) {
	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	_, server, _ := newStub(t, identitystub.WithNowFunc(clock.Now), identitystub.WithOTPTTL(time.Minute))

	resp := post(t, server.URL+authmodel.PathOTPRequest, authmodel.OTPRequest{PhoneNumber: "0200000000"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	clock.Advance(2 * time.Minute)

	resp = post(t, server.URL+authmodel.PathOTPVerify, authmodel.OTPVerifyRequest{PhoneNumber: "0200000000", Code: identitystub.DefaultOTPCode}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	detail := decode[authmodel.ErrorResponse](t, resp)
	require.Equal(t, "Invalid or expired code.", detail.Detail)
}
