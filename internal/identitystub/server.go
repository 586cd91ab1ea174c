// Package identitystub is an in-process identity and API server. It issues
// short-lived HS256 access tokens and opaque refresh tokens, and exposes
// controls (clock, latency, revocation, call counters) for tests and demos.
package identitystub

import (
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/jrsteele09/go-auth-client/notifications"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	RouteNotifications   = "/notifications"
	RouteMarkRead        = "/notifications/{id}/mark-read"
	RouteMarkAllRead     = "/notifications/mark-all-read"
	DefaultAccessTTL     = 15 * time.Minute
	DefaultSigningSecret = "identity-stub-signing-secret"
	DefaultOTPCode       = "123456"
)

type Server struct {
	mux       *http.ServeMux
	routes    []string
	signer    token.Signer
	nowFunc   func() time.Time
	accessTTL time.Duration
	otpCode   string
	otpTTL    time.Duration
	otps      OTPRepo
	rotate    bool
	logger    zerolog.Logger

	lock          sync.RWMutex
	members       map[string]*member // member id to member
	identifiers   map[string]string  // phone number or email to member id
	refreshTokens map[string]string  // refresh token to member id
	inbox         map[string][]notifications.Notification
	latency       time.Duration
	revoked       bool

	refreshCalls atomic.Int64
	loginCalls   atomic.Int64
}

type Option func(*Server)

// WithNowFunc sets the clock used to mint and verify tokens.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

func WithSigningSecret(secret string) Option {
	return func(s *Server) {
		s.signer = s.newSigner(secret)
	}
}

// WithOTPCode fixes the one-time code every OTP request issues.
func WithOTPCode(code string) Option {
	return func(s *Server) {
		s.otpCode = code
	}
}

// WithOTPTTL sets how long an issued code stays redeemable.
func WithOTPTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.otpTTL = ttl
	}
}

// WithRefreshRotation makes every refresh issue a new refresh token and
// invalidate the one presented.
func WithRefreshRotation() Option {
	return func(s *Server) {
		s.rotate = true
	}
}

func WithLatency(latency time.Duration) Option {
	return func(s *Server) {
		s.latency = latency
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(options ...Option) *Server {
	s := &Server{
		mux:           http.NewServeMux(),
		nowFunc:       time.Now,
		accessTTL:     DefaultAccessTTL,
		otpCode:       DefaultOTPCode,
		otpTTL:        DefaultOTPTTL,
		otps:          NewInMemoryOTPRepo(),
		logger:        log.Logger,
		members:       make(map[string]*member),
		identifiers:   make(map[string]string),
		refreshTokens: make(map[string]string),
		inbox:         make(map[string][]notifications.Notification),
	}
	s.signer = s.newSigner(DefaultSigningSecret)

	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("POST "+authmodel.PathToken, ChainMiddleware(s.TokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+authmodel.PathRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+authmodel.PathRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+authmodel.PathOTPRequest, ChainMiddleware(s.OTPRequestHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+authmodel.PathOTPVerify, ChainMiddleware(s.OTPVerifyHandler(), s.APIMiddleware()...))

	// Bearer protected
	s.RegisterRouteFunc("GET "+authmodel.PathMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireBearer)...))
	s.RegisterRouteFunc("GET "+RouteNotifications, ChainMiddleware(s.NotificationsHandler(), s.APIMiddleware(s.RequireBearer)...))
	s.RegisterRouteFunc("POST "+RouteMarkRead, ChainMiddleware(s.MarkReadHandler(), s.APIMiddleware(s.RequireBearer)...))
	s.RegisterRouteFunc("POST "+RouteMarkAllRead, ChainMiddleware(s.MarkAllReadHandler(), s.APIMiddleware(s.RequireBearer)...))
}

// SetLatency delays every subsequent response.
func (s *Server) SetLatency(latency time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.latency = latency
}

// RevokeRefreshTokens makes every refresh attempt fail with 401.
func (s *Server) RevokeRefreshTokens() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.revoked = true
	s.refreshTokens = make(map[string]string)
}

// RefreshCalls counts requests that reached the refresh endpoint.
func (s *Server) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// LoginCalls counts requests that reached the token endpoint.
func (s *Server) LoginCalls() int {
	return int(s.loginCalls.Load())
}

// AddNotification appends n to a member's inbox.
func (s *Server) AddNotification(memberID string, n notifications.Notification) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.inbox[memberID] = append(s.inbox[memberID], n)
}

// Notifications returns a copy of a member's inbox, newest first.
func (s *Server) Notifications(memberID string) []notifications.Notification {
	s.lock.RLock()
	defer s.lock.RUnlock()

	list := make([]notifications.Notification, 0, len(s.inbox[memberID]))
	list = append(list, s.inbox[memberID]...)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

func (s *Server) currentLatency() time.Duration {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.latency
}

func (s *Server) newSigner(secret string) token.Signer {
	return token.NewHMACSigner(secret, jwt.WithTimeFunc(func() time.Time {
		return s.nowFunc()
	}))
}
