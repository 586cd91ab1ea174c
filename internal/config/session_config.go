package config

import "time"

type SessionConfig interface {
	GetExpiryBuffer() time.Duration
	GetRequestTimeout() time.Duration
	GetRefreshTimeout() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetExpiryBuffer is how close to expiry an access token may get before a
// request triggers a proactive refresh.
func (Session) GetExpiryBuffer() time.Duration {
	return 45 * time.Second
}

func (Session) GetRequestTimeout() time.Duration {
	return 20 * time.Second
}

func (Session) GetRefreshTimeout() time.Duration {
	return 20 * time.Second
}
