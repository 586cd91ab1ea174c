// Package profile keeps the signed-in principal's cached profile in step with
// the server, independently of token rotation.
package profile

import (
	"context"
	"time"

	"github.com/jrsteele09/go-auth-client/apierror"
	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/dispatch"
	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Session is the identity cache held by the session manager.
type Session interface {
	Identity() *identity.Identity
	UpdateIdentity(id identity.Identity) error
}

// Requester issues authenticated GETs.
type Requester interface {
	Get(ctx context.Context, path string, options ...dispatch.RequestOption) (*dispatch.Result, error)
}

var (
	_ Session   = (*session.Manager)(nil)
	_ Requester = (*dispatch.Dispatcher)(nil)
)

type Service struct {
	session Session
	api     Requester
	path    string
	nowFunc func() time.Time
	logger  zerolog.Logger
}

type Option func(*Service)

// WithPath overrides the profile endpoint (default /auth/me).
func WithPath(path string) Option {
	return func(s *Service) {
		s.path = path
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(sess Session, api Requester, options ...Option) *Service {
	s := &Service{
		session: sess,
		api:     api,
		path:    authmodel.PathMe,
		nowFunc: time.Now,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Current returns the cached profile, or fetches it when force is set or
// nothing is cached. On failure the cached profile (possibly nil) is returned
// together with the error.
func (s *Service) Current(ctx context.Context, force bool) (*identity.Identity, error) {
	cached := s.session.Identity()
	if !force && cached != nil {
		return cached, nil
	}

	result, err := s.api.Get(ctx, s.path)
	if err != nil {
		s.logger.Warn().Err(err).Msg("profile fetch failed, using cached identity")
		return cached, err
	}

	fetched, err := dispatch.Decode[identity.Identity](result)
	if err != nil {
		return cached, err
	}
	if err := fetched.Validate(); err != nil {
		apiErr := apierror.API(result.Status, "Profile response was missing an id.", nil)
		apiErr.Err = errors.Wrap(err, "[Service.Current]")
		return cached, apiErr
	}

	if err := s.session.UpdateIdentity(fetched); err != nil {
		return cached, err
	}
	return &fetched, nil
}

// Refresh always fetches the profile from the server.
func (s *Service) Refresh(ctx context.Context) (*identity.Identity, error) {
	return s.Current(ctx, true)
}

// UpdateKYCStatus records a new verification state locally.
func (s *Service) UpdateKYCStatus(status identity.KYCStatus) error {
	return s.update(func(id *identity.Identity, now time.Time) {
		id.KYCStatus = status
		id.UpdatedAt = &now
	})
}

// UpdateWalletBalance records a new balance locally. A zero walletUpdatedAt
// means now.
func (s *Service) UpdateWalletBalance(balance identity.Amount, walletUpdatedAt time.Time) error {
	return s.update(func(id *identity.Identity, now time.Time) {
		if walletUpdatedAt.IsZero() {
			walletUpdatedAt = now
		}
		id.WalletBalance = balance
		id.WalletUpdatedAt = &walletUpdatedAt
		id.UpdatedAt = &now
	})
}

func (s *Service) update(apply func(id *identity.Identity, now time.Time)) error {
	current := s.session.Identity()
	if current == nil {
		return apierror.SessionExpired(session.ErrNoSession)
	}
	apply(current, s.nowFunc().UTC())
	return s.session.UpdateIdentity(*current)
}
