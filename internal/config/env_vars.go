package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appNameVar    = "APP_NAME"
	envVar        = "APP_ENV"
	baseURLVar    = "API_BASE_URL"
	sessionDirVar = "SESSION_DIR"
	sessionSlot   = "SESSION_SLOT"
	logLevelVar   = "LOG_LEVEL"
)

// Environment selects the default API base URL when no override is set.
type Environment string

const (
	EnvLocal      Environment = "local"
	EnvStaging    Environment = "staging"
	EnvProduction Environment = "production"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Sankofa Session")
}

func (EnvVars) GetEnv() Environment {
	switch env := Environment(strings.ToLower(os.Getenv(envVar))); env {
	case EnvStaging, EnvProduction:
		return env
	default:
		return EnvLocal
	}
}

// GetBaseURL returns the API base URL (e.g., "https://api.sankofa.africa").
// An explicit API_BASE_URL wins over the environment default.
func (e EnvVars) GetBaseURL() string {
	if override := os.Getenv(baseURLVar); override != "" {
		return NormalizeBaseURL(override)
	}
	return NormalizeBaseURL(DefaultBaseURL(e.GetEnv()))
}

func (EnvVars) GetSessionDir() string {
	if dir := os.Getenv(sessionDirVar); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.session"
	}
	return filepath.Join(home, ".config", "sankofa")
}

func (EnvVars) GetSessionSlot() string {
	return GetEnv(sessionSlot, "session")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// DefaultBaseURL maps an environment onto its API host.
func DefaultBaseURL(env Environment) string {
	switch env {
	case EnvProduction:
		return "https://api.sankofa.africa"
	case EnvStaging:
		return "https://staging.api.sankofa.local"
	default:
		return "http://localhost:8000"
	}
}

// NormalizeBaseURL trims whitespace, defaults the scheme to https and drops a
// trailing slash so that paths can be appended directly.
func NormalizeBaseURL(raw string) string {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		return DefaultBaseURL(EnvLocal)
	}
	if !strings.HasPrefix(normalized, "http://") && !strings.HasPrefix(normalized, "https://") {
		normalized = "https://" + normalized
	}
	return strings.TrimRight(normalized, "/")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
