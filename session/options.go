package session

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/rs/zerolog"
)

const (
	// DefaultExpiryBuffer is how long before expiry an access token is treated as stale.
	DefaultExpiryBuffer = 45 * time.Second
	// DefaultRequestTimeout bounds every call to the identity endpoints.
	DefaultRequestTimeout = 20 * time.Second
)

// Endpoints are the identity paths relative to the base URL.
type Endpoints struct {
	Token      string
	Refresh    string
	Register   string
	OTPRequest string
	OTPVerify  string
}

// DefaultEndpoints returns the standard /auth paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Token:      authmodel.PathToken,
		Refresh:    authmodel.PathRefresh,
		Register:   authmodel.PathRegister,
		OTPRequest: authmodel.PathOTPRequest,
		OTPVerify:  authmodel.PathOTPVerify,
	}
}

type Option func(*Manager)

func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		if client != nil {
			m.client = client
		}
	}
}

// WithNowFunc sets the clock used for expiry checks (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithExpiryBuffer(buffer time.Duration) Option {
	return func(m *Manager) {
		m.expiryBuffer = buffer
	}
}

// WithRefreshTimeout bounds the shared refresh exchange independently of any caller's context.
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.refreshTimeout = timeout
	}
}

// WithRequestTimeout bounds login, registration and OTP calls.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.requestTimeout = timeout
	}
}

// WithEndpoints overrides individual paths. Empty fields keep their defaults.
func WithEndpoints(endpoints Endpoints) Option {
	return func(m *Manager) {
		if endpoints.Token != "" {
			m.endpoints.Token = endpoints.Token
		}
		if endpoints.Refresh != "" {
			m.endpoints.Refresh = endpoints.Refresh
		}
		if endpoints.Register != "" {
			m.endpoints.Register = endpoints.Register
		}
		if endpoints.OTPRequest != "" {
			m.endpoints.OTPRequest = endpoints.OTPRequest
		}
		if endpoints.OTPVerify != "" {
			m.endpoints.OTPVerify = endpoints.OTPVerify
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}
