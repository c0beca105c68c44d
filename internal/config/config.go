package config

import "time"

type Config interface {
	EnvConfig
	EndpointConfig
	SessionConfig
	StoreConfig
	LogConfig
	DevServerConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetDevSigningKey() string
}

type EndpointConfig interface {
	GetAuthBaseURL() string
	GetAPIBaseURL() string
	GetLoginPath() string
	GetTokenPath() string
	GetRefreshPath() string
	GetLogoutPath() string
	GetCallbackPort() int
	GetRedirectURL() string
	GetLandingURL() string
	GetHTTPTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	Endpoints
	Session
	Store
	Log
	DevServer
}

func New() Config {
	return mainConfig{}
}
