// Package session owns the credential pair of a signed-in principal. It logs
// in, hands out usable access tokens, refreshes them (at most one exchange in
// flight at a time) and tears the session down when the server rejects it.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/apierror"
	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/internal/transport"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const refreshFlightKey = "refresh"

var (
	ErrNoSession       = errors.New("no active session")
	ErrNoRefreshToken  = errors.New("session has no refresh token")
	ErrSessionReplaced = errors.New("session was signed out while refreshing")
)

// Manager is the single owner of the credential slot. It is safe for
// concurrent use.
type Manager struct {
	store          credentials.Store
	baseURL        string
	client         *http.Client
	endpoints      Endpoints
	expiryBuffer   time.Duration
	refreshTimeout time.Duration
	requestTimeout time.Duration
	nowFunc        func() time.Time
	logger         zerolog.Logger

	lock       sync.RWMutex
	state      State
	creds      *credentials.Credentials
	identity   *identity.Identity
	generation uint64 // Bumped whenever the credential pair is replaced or dropped

	flight singleflight.Group
}

// New builds a Manager and rehydrates any session held by store.
func New(store credentials.Store, baseURL string, options ...Option) *Manager {
	m := &Manager{
		store:          store,
		baseURL:        strings.TrimRight(baseURL, "/"),
		client:         http.DefaultClient,
		endpoints:      DefaultEndpoints(),
		expiryBuffer:   DefaultExpiryBuffer,
		refreshTimeout: DefaultRequestTimeout,
		requestTimeout: DefaultRequestTimeout,
		nowFunc:        time.Now,
		logger:         log.Logger,
		state:          Unauthenticated,
	}

	for _, opt := range options {
		opt(m)
	}

	if record := store.Load(); record != nil {
		creds := record.Credentials
		id := record.Identity
		m.creds = &creds
		m.identity = &id
		m.state = Authenticated
		m.logger.Debug().Str("identity", id.ID).Msg("session restored")
	}

	return m
}

// Login exchanges an identifier and secret for a credential pair. Any
// non-2xx answer is an AuthFailure carrying the server's message.
func (m *Manager) Login(ctx context.Context, identifier, secret string) (*identity.Identity, error) {
	body := authmodel.LoginRequest{
		Identifier: strings.TrimSpace(identifier),
		Secret:     secret,
	}

	resp, err := transport.PostJSON(ctx, m.client, m.url(m.endpoints.Token), body, m.requestTimeout)
	if err != nil {
		m.logger.Warn().Err(err).Msg("login request failed")
		return nil, err
	}

	if !resp.OK() {
		message, _ := apierror.ExtractMessage(resp.Body)
		m.logger.Info().Int("status", resp.Status).Msg("login rejected")
		return nil, apierror.AuthFailure(resp.Status, message)
	}

	return m.establish(resp, "[Manager.Login]")
}

// AccessToken returns the current access token, or "" when there is no
// session. With allowProactiveRefresh set, a token inside the expiry buffer is
// refreshed first; without it the stored token is returned even if stale.
func (m *Manager) AccessToken(ctx context.Context, allowProactiveRefresh bool) (string, error) {
	m.lock.RLock()
	creds := m.creds
	generation := m.generation
	stale := creds != nil && creds.ExpiresWithin(m.nowFunc(), m.expiryBuffer)
	m.lock.RUnlock()

	if creds == nil {
		return "", nil
	}
	if !allowProactiveRefresh || !stale {
		return creds.AccessToken, nil
	}

	m.logger.Debug().Time("expiry", creds.AccessExpiry).Msg("access token inside expiry buffer, refreshing")
	if err := m.refreshFrom(ctx, generation); err != nil {
		return "", err
	}

	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.creds == nil {
		return "", nil
	}
	return m.creds.AccessToken, nil
}

// Refresh exchanges the refresh token for a new access token. Concurrent
// callers share a single exchange. A 401 or 403 ends the session.
func (m *Manager) Refresh(ctx context.Context) error {
	m.lock.RLock()
	generation := m.generation
	m.lock.RUnlock()

	return m.refreshFrom(ctx, generation)
}

// RefreshRejected refreshes after the server rejected the access token
// rejected. When the current token is already a different one, a refresh
// has happened since that request was sent and no exchange is made.
func (m *Manager) RefreshRejected(ctx context.Context, rejected string) error {
	m.lock.RLock()
	creds := m.creds
	generation := m.generation
	m.lock.RUnlock()

	if creds == nil {
		return apierror.SessionExpired(ErrNoSession)
	}
	if creds.AccessToken != rejected {
		m.logger.Debug().Msg("rejected access token already replaced, skipping refresh")
		return nil
	}
	return m.refreshFrom(ctx, generation)
}

// refreshFrom joins or starts the shared exchange. seen is the generation the
// caller based its decision on; if the pair has changed since, the exchange
// is already done and no request is made.
func (m *Manager) refreshFrom(ctx context.Context, seen uint64) error {
	ch := m.flight.DoChan(refreshFlightKey, func() (any, error) {
		return nil, m.exchange(context.WithoutCancel(ctx), seen)
	})

	select {
	case result := <-ch:
		if result.Err != nil {
			return apierror.Classify(result.Err)
		}
		return nil
	case <-ctx.Done():
		return apierror.Classify(ctx.Err())
	}
}

func (m *Manager) exchange(ctx context.Context, seen uint64) error {
	m.lock.Lock()
	if m.creds == nil {
		m.lock.Unlock()
		return apierror.SessionExpired(ErrNoSession)
	}
	if m.generation != seen {
		m.lock.Unlock()
		return nil
	}
	if m.creds.RefreshToken == "" {
		m.lock.Unlock()
		return apierror.SessionExpired(ErrNoRefreshToken)
	}
	refreshToken := m.creds.RefreshToken
	m.state = Refreshing
	m.lock.Unlock()

	m.logger.Debug().Str("endpoint", m.endpoints.Refresh).Msg("refreshing access token")

	resp, err := transport.PostJSON(ctx, m.client, m.url(m.endpoints.Refresh), authmodel.RefreshRequest{Refresh: refreshToken}, m.refreshTimeout)
	if err != nil {
		m.logger.Warn().Err(err).Msg("refresh unreachable, keeping current session")
		m.settle(seen, Authenticated)
		return err
	}

	if resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden {
		m.logger.Info().Int("status", resp.Status).Msg("refresh token rejected, session expired")
		cause := apierror.FromResponse(resp.Status, resp.Body)
		m.expireIf(seen)
		return apierror.SessionExpired(cause)
	}

	if !resp.OK() {
		m.logger.Warn().Int("status", resp.Status).Msg("refresh failed")
		m.settle(seen, Authenticated)
		return apierror.FromResponse(resp.Status, resp.Body)
	}

	var refreshed authmodel.RefreshResponse
	if err := json.Unmarshal(resp.Body, &refreshed); err != nil || refreshed.Access == "" {
		m.settle(seen, Authenticated)
		apiErr := apierror.API(resp.Status, "Refresh response was missing an access token.", nil)
		if err != nil {
			apiErr.Err = errors.Wrap(err, "[Manager.exchange] failed to decode refresh response")
		}
		return apiErr
	}

	return m.rotate(seen, refreshed)
}

// rotate installs a refreshed access token, adopting a rotated refresh token
// when the server sent one.
func (m *Manager) rotate(seen uint64, refreshed authmodel.RefreshResponse) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.generation != seen || m.creds == nil {
		m.logger.Debug().Msg("discarding refresh result for a replaced session")
		if m.creds == nil {
			return apierror.SessionExpired(ErrSessionReplaced)
		}
		return nil
	}

	next := *m.creds
	next.AccessToken = refreshed.Access
	next.AccessExpiry = token.ExpiryOrZero(refreshed.Access)
	if refreshed.Refresh != "" {
		next.RefreshToken = refreshed.Refresh
	}

	m.creds = &next
	m.generation++
	m.state = Authenticated
	m.persistLocked()
	return nil
}

// Logout drops the session from memory and storage. It never fails.
func (m *Manager) Logout() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.dropLocked()
	m.state = Unauthenticated
	m.logger.Info().Msg("signed out")
}

// Expire drops the session and marks it Expired. Used when the server keeps
// rejecting a freshly refreshed token.
func (m *Manager) Expire() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.dropLocked()
	m.state = Expired
}

// Identity returns a copy of the cached principal, or nil.
func (m *Manager) Identity() *identity.Identity {
	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.identity == nil {
		return nil
	}
	id := *m.identity
	return &id
}

// UpdateIdentity replaces the cached principal and persists it alongside the
// current credentials.
func (m *Manager) UpdateIdentity(id identity.Identity) error {
	if err := id.Validate(); err != nil {
		return apierror.API(0, err.Error(), nil)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if m.creds == nil {
		return apierror.SessionExpired(ErrNoSession)
	}
	m.identity = &id
	m.persistLocked()
	return nil
}

func (m *Manager) IsAuthenticated() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.creds != nil
}

// HasActiveSession reports a refresh token and a cached identity.
func (m *Manager) HasActiveSession() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.creds != nil && m.creds.RefreshToken != "" && m.identity != nil
}

func (m *Manager) State() State {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.state
}

// AccessExpiry returns the decoded expiry of the current access token; zero
// when unknown or signed out.
func (m *Manager) AccessExpiry() time.Time {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.creds == nil {
		return time.Time{}
	}
	return m.creds.AccessExpiry
}

// establish persists the pair and identity from a successful token response.
func (m *Manager) establish(resp *transport.Response, caller string) (*identity.Identity, error) {
	var payload authmodel.TokenResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		apiErr := apierror.API(resp.Status, apierror.MsgMissingFields, nil)
		apiErr.Err = errors.Wrap(err, caller+" failed to decode token response")
		return nil, apiErr
	}
	if !payload.Complete() || payload.Principal().Validate() != nil {
		return nil, apierror.API(resp.Status, apierror.MsgMissingFields, nil)
	}

	creds := credentials.Credentials{
		AccessToken:  payload.Access,
		RefreshToken: payload.Refresh,
		AccessExpiry: token.ExpiryOrZero(payload.Access),
	}
	id := *payload.Principal()

	m.lock.Lock()
	m.creds = &creds
	m.identity = &id
	m.generation++
	m.state = Authenticated
	m.persistLocked()
	m.lock.Unlock()

	m.logger.Info().Str("identity", id.ID).Str("kyc", string(id.KYCStatus)).Msg("signed in")

	result := id
	return &result, nil
}

// settle moves back to state after a failed exchange, unless the session
// changed underneath it.
func (m *Manager) settle(seen uint64, state State) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.generation == seen && m.creds != nil {
		m.state = state
	}
}

func (m *Manager) expireIf(seen uint64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.generation != seen {
		return
	}
	m.dropLocked()
	m.state = Expired
}

func (m *Manager) dropLocked() {
	if err := m.store.Clear(); err != nil {
		m.logger.Error().Err(err).Msg("failed to clear credential store")
	}
	m.creds = nil
	m.identity = nil
	m.generation++
}

// persistLocked writes the in-memory pair to the store. A storage failure
// leaves the session usable for the life of the process.
func (m *Manager) persistLocked() {
	if m.creds == nil || m.identity == nil {
		return
	}
	if err := m.store.Save(*m.creds, *m.identity); err != nil {
		m.logger.Error().Err(errors.Wrap(err, "[Manager.persist]")).Msg("failed to persist session")
	}
}

func (m *Manager) url(path string) string {
	return m.baseURL + path
}
