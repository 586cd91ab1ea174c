package config

import (
	"os"
	"time"
)

const (
	stubAddrVar      = "STUB_ADDR"
	stubSecretVar    = "STUB_SIGNING_SECRET"
	stubAccessTTLVar = "STUB_ACCESS_TTL"
)

// StubConfig configures the local identity stub server.
type StubConfig interface {
	GetStubAddr() string
	GetStubSigningSecret() string
	GetStubAccessTTL() time.Duration
}

type Stub struct{}

var _ StubConfig = Stub{}

func (Stub) GetStubAddr() string {
	return GetEnv(stubAddrVar, ":8000")
}

func (Stub) GetStubSigningSecret() string {
	return GetEnv(stubSecretVar, "identity-stub-signing-secret")
}

// GetStubAccessTTL parses STUB_ACCESS_TTL as a Go duration, falling back to
// 15 minutes when unset or invalid.
func (Stub) GetStubAccessTTL() time.Duration {
	ttl, err := time.ParseDuration(os.Getenv(stubAccessTTLVar))
	if err != nil || ttl <= 0 {
		return 15 * time.Minute
	}
	return ttl
}
