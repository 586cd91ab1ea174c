package identitystub_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/internal/identitystub"
	"github.com/jrsteele09/go-auth-client/notifications"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *testClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

func post(t *testing.T, url string, body any, bearer string) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func get(t *testing.T, url, bearer string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func newStub(t *testing.T, options ...identitystub.Option) (*identitystub.Server, *httptest.Server, identity.Identity) {
	t.Helper()
	stub := identitystub.New(options...)
	member, err := stub.AddMember("s3cret", identity.Identity{
		PhoneNumber: "0200000000",
		FullName:    "Ama Mensah",
		Email:       "ama@example.com",
	})
	require.NoError(t, err)

	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)
	return stub, server, member
}

func TestAddMember(t *testing.T) {
	stub := identitystub.New()

	member, err := stub.AddMember("pin", identity.Identity{PhoneNumber: "0200000000", FullName: "Ama"})
	require.NoError(t, err)
	require.NotEmpty(t, member.ID)
	require.Equal(t, "+233200000000", member.PhoneNumber)
	require.Equal(t, identity.KYCPending, member.KYCStatus)
	require.True(t, member.IsActive)

	_, err = stub.AddMember("pin", identity.Identity{PhoneNumber: "+233200000000"})
	require.ErrorIs(t, err, identitystub.ErrMemberExists)

	_, err = stub.AddMember("pin", identity.Identity{})
	require.ErrorIs(t, err, identitystub.ErrMissingPhone)
}

func TestSecretHash(t *testing.T) {
	hash, err := identitystub.HashSecret("pin")
	require.NoError(t, err)
	require.True(t, identitystub.CheckSecretHash("pin", hash))
	require.False(t, identitystub.CheckSecretHash("nip", hash))
	require.False(t, identitystub.CheckSecretHash("pin", ""))
}

func TestTokenHandler(t *testing.T) {
	clock := &testClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	stub, server, member := newStub(t, identitystub.WithNowFunc(clock.Now), identitystub.WithAccessTTL(5*time.Minute))

	t.Run("phone login", func(t *testing.T) {
		resp := post(t, server.URL+authmodel.PathToken, authmodel.LoginRequest{Identifier: "+233200000000", Secret: "s3cret"}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decode[authmodel.TokenResponse](t, resp)
		require.True(t, body.Complete())
		require.Equal(t, member.ID, body.Principal().ID)
		require.Equal(t, identity.KYCPending, body.Principal().KYCStatus)

		expiry, err := token.Expiry(body.Access)
		require.NoError(t, err)
		require.Equal(t, clock.Now().Add(5*time.Minute).Unix(), expiry.Unix())
	})

	t.Run("email login", func(t *testing.T) {
		resp := post(t, server.URL+authmodel.PathToken, authmodel.LoginRequest{Identifier: "AMA@example.com", Secret: "s3cret"}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("wrong secret", func(t *testing.T) {
		resp := post(t, server.URL+authmodel.PathToken, authmodel.LoginRequest{Identifier: "+233200000000", Secret: "nope"}, "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		body := decode[authmodel.ErrorResponse](t, resp)
		require.Equal(t, "No active account found with the given credentials", body.Detail)
	})

	require.Equal(t, 3, stub.LoginCalls())
}

func TestRefreshHandler(t *testing.T) {
	_, server, _ := newStub(t)

	resp := post(t, server.URL+authmodel.PathToken, authmodel.LoginRequest{Identifier: "+233200000000", Secret: "s3cret"}, "")
	pair := decode[authmodel.TokenResponse](t, resp)

	resp = post(t, server.URL+authmodel.PathRefresh, authmodel.RefreshRequest{Refresh: pair.Refresh}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refreshed := decode[authmodel.RefreshResponse](t, resp)
	require.NotEmpty(t, refreshed.Access)
	require.NotEqual(t, pair.Access, refreshed.Access)
	require.Empty(t, refreshed.Refresh)

	resp = post(t, server.URL+authmodel.PathRefresh, authmodel.RefreshRequest{Refresh: "unknown"}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRefreshHandler_Rotation(t *testing.T) {
	stub, server, _ := newStub(t, identitystub.WithRefreshRotation())

	pair := decode[authmodel.TokenResponse](t, post(t, server.URL+authmodel.PathToken, authmodel.LoginRequest{Identifier: "0200000000", Secret: "s3cret"}, ""))

	refreshed := decode[authmodel.RefreshResponse](t, post(t, server.URL+authmodel.PathRefresh, authmodel.RefreshRequest{Refresh: pair.Refresh}, ""))
	require.NotEmpty(t, refreshed.Refresh)
	require.NotEqual(t, pair.Refresh, refreshed.Refresh)

	resp := post(t, server.URL+authmodel.PathRefresh, authmodel.RefreshRequest{Refresh: pair.Refresh}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	require.Equal(t, 2, stub.RefreshCalls())
}

func TestRevokeRefreshTokens(t *testing.T) {
	stub, server, _ := newStub(t)

	pair := decode[authmodel.TokenResponse](t, post(t, server.URL+authmodel.PathToken, authmodel.LoginRequest{Identifier: "0200000000", Secret: "s3cret"}, ""))
	stub.RevokeRefreshTokens()

	resp := post(t, server.URL+authmodel.PathRefresh, authmodel.RefreshRequest{Refresh: pair.Refresh}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestMeHandler(t *testing.T) {
	clock := &testClock{now: time.Now()}
	_, server, member := newStub(t, identitystub.WithNowFunc(clock.Now), identitystub.WithAccessTTL(time.Minute))

	pair := decode[authmodel.TokenResponse](t, post(t, server.URL+authmodel.PathToken, authmodel.LoginRequest{Identifier: "0200000000", Secret: "s3cret"}, ""))

	t.Run("valid bearer", func(t *testing.T) {
		resp := get(t, server.URL+authmodel.PathMe, pair.Access)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		me := decode[identity.Identity](t, resp)
		require.Equal(t, member.ID, me.ID)
		require.NotNil(t, me.LastLogin)
	})

	t.Run("missing bearer", func(t *testing.T) {
		resp := get(t, server.URL+authmodel.PathMe, "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("expired bearer", func(t *testing.T) {
		clock.Advance(2 * time.Minute)
		resp := get(t, server.URL+authmodel.PathMe, pair.Access)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestRegisterAndOTP(t *testing.T) {
	_, server, _ := newStub(t, identitystub.WithOTPCode("424242"))

	resp := post(t, server.URL+authmodel.PathRegister, authmodel.RegisterRequest{PhoneNumber: "024 123 4567", FullName: "Kofi Boateng"}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	registered := decode[authmodel.RegisterResponse](t, resp)
	require.Equal(t, "+233241234567", registered.User.PhoneNumber)

	resp = post(t, server.URL+authmodel.PathRegister, authmodel.RegisterRequest{PhoneNumber: "+233241234567", FullName: "Kofi Boateng"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = post(t, server.URL+authmodel.PathOTPVerify, authmodel.OTPVerifyRequest{PhoneNumber: "+233241234567", Code: "000000"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = post(t, server.URL+authmodel.PathOTPVerify, authmodel.OTPVerifyRequest{PhoneNumber: "0241234567", Code: "424242"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pair := decode[authmodel.TokenResponse](t, resp)
	require.True(t, pair.Complete())
	require.NotNil(t, pair.User)

	// Codes are single use
	resp = post(t, server.URL+authmodel.PathOTPVerify, authmodel.OTPVerifyRequest{PhoneNumber: "0241234567", Code: "424242"}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = post(t, server.URL+authmodel.PathOTPRequest, authmodel.OTPRequest{PhoneNumber: "0241234567", Purpose: authmodel.OTPLogin}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = post(t, server.URL+authmodel.PathOTPRequest, authmodel.OTPRequest{PhoneNumber: "0551112222", Purpose: authmodel.OTPLogin}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestNotifications(t *testing.T) {
	stub, server, member := newStub(t)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	stub.AddNotification(member.ID, notifications.Notification{ID: "n1", Title: "Older", CreatedAt: base})
	stub.AddNotification(member.ID, notifications.Notification{ID: "n2", Title: "Newer", CreatedAt: base.Add(time.Hour)})

	pair := decode[authmodel.TokenResponse](t, post(t, server.URL+authmodel.PathToken, authmodel.LoginRequest{Identifier: "0200000000", Secret: "s3cret"}, ""))

	list := decode[[]notifications.Notification](t, get(t, server.URL+identitystub.RouteNotifications, pair.Access))
	require.Len(t, list, 2)
	require.Equal(t, "n2", list[0].ID)

	resp := post(t, server.URL+"/notifications/n1/mark-read", nil, pair.Access)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = post(t, server.URL+"/notifications/missing/mark-read", nil, pair.Access)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	read := stub.Notifications(member.ID)
	require.True(t, read[1].Read)
	require.False(t, read[0].Read)

	resp = post(t, server.URL+identitystub.RouteMarkAllRead, nil, pair.Access)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
	for _, n := range stub.Notifications(member.ID) {
		require.True(t, n.Read)
	}
}

func TestLatency(t *testing.T) {
	stub, server, _ := newStub(t)
	stub.SetLatency(200 * time.Millisecond)

	client := &http.Client{Timeout: 50 * time.Millisecond}
	_, err := client.Post(server.URL+authmodel.PathRefresh, "application/json", bytes.NewReader([]byte(`{"refresh":"x"}`)))
	require.Error(t, err)
}

func TestRoutes(t *testing.T) {
	stub := identitystub.New()
	require.Contains(t, stub.Routes(), "POST "+authmodel.PathRefresh)
	require.Contains(t, stub.Routes(), "GET "+authmodel.PathMe)
}
