// Package notifications reads a member's inbox with a local cache. Marking
// entries read is best effort: failures are logged and otherwise ignored.
package notifications

import (
	"context"
	"net/url"
	"sync"

	"github.com/jrsteele09/go-auth-client/dispatch"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	PathList        = "/notifications"
	PathMarkAllRead = "/notifications/mark-all-read"
)

// Requester issues authenticated requests.
type Requester interface {
	Get(ctx context.Context, path string, options ...dispatch.RequestOption) (*dispatch.Result, error)
	Post(ctx context.Context, path string, body any, options ...dispatch.RequestOption) (*dispatch.Result, error)
}

var _ Requester = (*dispatch.Dispatcher)(nil)

type Service struct {
	api    Requester
	logger zerolog.Logger

	lock   sync.RWMutex
	cache  []Notification
	cached bool
}

type Option func(*Service)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(api Requester, options ...Option) *Service {
	s := &Service{
		api:    api,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// List returns the inbox, from cache unless force is set or nothing is
// cached. When the fetch fails the cached list (empty if none) is returned
// with the error.
func (s *Service) List(ctx context.Context, force bool) ([]Notification, error) {
	if !force {
		if list, ok := s.snapshot(); ok {
			return list, nil
		}
	}

	result, err := s.api.Get(ctx, PathList)
	if err == nil {
		var fetched []Notification
		if fetched, err = dispatch.Decode[[]Notification](result); err == nil {
			s.store(fetched)
			return s.copyOf(fetched), nil
		}
	}

	s.logger.Warn().Err(err).Msg("notifications fetch failed, using cache")
	s.lock.Lock()
	if !s.cached {
		s.cache = []Notification{}
		s.cached = true
	}
	s.lock.Unlock()

	list, _ := s.snapshot()
	return list, err
}

// MarkRead marks one notification read on the server and in the cache.
func (s *Service) MarkRead(ctx context.Context, id string) {
	if _, err := s.api.Post(ctx, PathList+"/"+url.PathEscape(id)+"/mark-read", nil); err != nil {
		s.logger.Warn().Err(err).Str("notification", id).Msg("mark read failed")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	for i := range s.cache {
		if s.cache[i].ID == id {
			s.cache[i].Read = true
		}
	}
}

// MarkAllRead marks the whole inbox read on the server and in the cache.
func (s *Service) MarkAllRead(ctx context.Context) {
	if _, err := s.api.Post(ctx, PathMarkAllRead, nil); err != nil {
		s.logger.Warn().Err(err).Msg("mark all read failed")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	for i := range s.cache {
		s.cache[i].Read = true
	}
}

// UnreadCount counts unread cached notifications.
func (s *Service) UnreadCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	count := 0
	for _, n := range s.cache {
		if !n.Read {
			count++
		}
	}
	return count
}

func (s *Service) ClearCache() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.cache = nil
	s.cached = false
}

func (s *Service) store(list []Notification) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.cache = s.copyOf(list)
	s.cached = true
}

func (s *Service) snapshot() ([]Notification, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if !s.cached {
		return nil, false
	}
	return s.copyOf(s.cache), true
}

func (s *Service) copyOf(list []Notification) []Notification {
	out := make([]Notification, len(list))
	copy(out, list)
	return out
}
