package profile_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/apierror"
	"github.com/jrsteele09/go-auth-client/credentials/storefake"
	"github.com/jrsteele09/go-auth-client/dispatch"
	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/internal/identitystub"
	"github.com/jrsteele09/go-auth-client/profile"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	stub    *identitystub.Server
	store   *storefake.FakeStore
	manager *session.Manager
	api     *dispatch.Dispatcher
	member  identity.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := func() time.Time { return fixedNow }

	f := &fixture{store: storefake.NewFakeStore()}
	f.stub = identitystub.New(identitystub.WithNowFunc(now), identitystub.WithLogger(zerolog.Nop()))
	member, err := f.stub.AddMember("s3cret", identity.Identity{PhoneNumber: "+233200000000", FullName: "Ama Mensah"})
	require.NoError(t, err)
	f.member = member

	server := httptest.NewServer(f.stub)
	t.Cleanup(server.Close)

	f.manager = session.New(f.store, server.URL,
		session.WithHTTPClient(server.Client()),
		session.WithNowFunc(now),
		session.WithLogger(zerolog.Nop()))
	f.api = dispatch.New(server.URL, f.manager,
		dispatch.WithHTTPClient(server.Client()),
		dispatch.WithLogger(zerolog.Nop()))
	return f
}

func (f *fixture) service() *profile.Service {
	return profile.New(f.manager, f.api,
		profile.WithNowFunc(func() time.Time { return fixedNow.Add(time.Hour) }),
		profile.WithLogger(zerolog.Nop()))
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	_, err := f.manager.Login(context.Background(), "+233200000000", "s3cret")
	require.NoError(t, err)
}

type failingRequester struct {
	calls int
}

func (fr *failingRequester) Get(ctx context.Context, path string, options ...dispatch.RequestOption) (*dispatch.Result, error) {
	fr.calls++
	return nil, apierror.Network(errors.New("connection refused"))
}

func TestCurrent(t *testing.T) {
	t.Run("cached identity without a request", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		changed := f.member
		changed.KYCStatus = identity.KYCVerified
		require.NoError(t, f.stub.UpdateMember(changed))

		id, err := f.service().Current(context.Background(), false)
		require.NoError(t, err)
		require.Equal(t, identity.KYCPending, id.KYCStatus)
	})

	t.Run("force fetches and persists", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		changed := f.member
		changed.KYCStatus = identity.KYCVerified
		changed.WalletBalance = "125.50"
		require.NoError(t, f.stub.UpdateMember(changed))

		id, err := f.service().Refresh(context.Background())
		require.NoError(t, err)
		require.True(t, id.IsVerified())
		require.Equal(t, identity.Amount("125.50"), id.WalletBalance)

		require.True(t, f.manager.Identity().IsVerified())
		record := f.store.Load()
		require.NotNil(t, record)
		require.True(t, record.Identity.IsVerified())
	})

	t.Run("failure returns the cached identity", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		api := &failingRequester{}
		svc := profile.New(f.manager, api, profile.WithLogger(zerolog.Nop()))

		id, err := svc.Current(context.Background(), true)
		require.ErrorIs(t, err, apierror.ErrNetwork)
		require.NotNil(t, id)
		require.Equal(t, f.member.ID, id.ID)
		require.Equal(t, 1, api.calls)
	})

	t.Run("no session fetches and fails", func(t *testing.T) {
		f := newFixture(t)

		api := &failingRequester{}
		id, err := profile.New(f.manager, api, profile.WithLogger(zerolog.Nop())).Current(context.Background(), false)
		require.Error(t, err)
		require.Nil(t, id)
		require.Equal(t, 1, api.calls)
	})
}

func TestUpdateKYCStatus(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	require.NoError(t, f.service().UpdateKYCStatus(identity.KYCRejected))

	id := f.manager.Identity()
	require.Equal(t, identity.KYCRejected, id.KYCStatus)
	require.Equal(t, fixedNow.Add(time.Hour), *id.UpdatedAt)
	require.Equal(t, identity.KYCRejected, f.store.Load().Identity.KYCStatus)
}

func TestUpdateWalletBalance(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	svc := f.service()

	require.NoError(t, svc.UpdateWalletBalance("40.00", time.Time{}))
	id := f.manager.Identity()
	require.Equal(t, identity.Amount("40.00"), id.WalletBalance)
	require.Equal(t, fixedNow.Add(time.Hour), *id.WalletUpdatedAt)

	at := fixedNow.Add(-time.Minute)
	require.NoError(t, svc.UpdateWalletBalance("41.00", at))
	require.Equal(t, at, *f.manager.Identity().WalletUpdatedAt)
}

func TestLocalUpdatesRequireSession(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	require.ErrorIs(t, svc.UpdateKYCStatus(identity.KYCVerified), apierror.ErrSessionExpired)
	require.ErrorIs(t, svc.UpdateWalletBalance("1.00", time.Time{}), apierror.ErrSessionExpired)
}
