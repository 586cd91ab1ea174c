package config

type Config interface {
	EnvConfig
	SessionConfig
	StubConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() Environment
	GetBaseURL() string
	GetSessionDir() string
	GetSessionSlot() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	Session
	Stub
}

func New() Config {
	return mainConfig{}
}
