package session

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-auth-client/apierror"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*Manager)(nil)

// Token implements oauth2.TokenSource over the proactive refresh path, so an
// oauth2.Transport can be backed by the session.
func (m *Manager) Token() (*oauth2.Token, error) {
	if _, err := m.AccessToken(context.Background(), true); err != nil {
		return nil, err
	}

	m.lock.RLock()
	defer m.lock.RUnlock()

	if m.creds == nil {
		return nil, apierror.SessionExpired(ErrNoSession)
	}
	return m.creds.OAuth2Token(), nil
}

// Client returns an *http.Client that authorises every request with the
// session's current access token.
func (m *Manager) Client(ctx context.Context) *http.Client {
	return oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, m.client), m)
}
