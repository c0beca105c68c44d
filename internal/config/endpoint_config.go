package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	authBaseURLVar  = "WORKBENCH_AUTH_URL"
	apiBaseURLVar   = "WORKBENCH_API_URL"
	loginPathVar    = "WORKBENCH_LOGIN_PATH"
	tokenPathVar    = "WORKBENCH_TOKEN_PATH"
	refreshPathVar  = "WORKBENCH_REFRESH_PATH"
	logoutPathVar   = "WORKBENCH_LOGOUT_PATH"
	callbackPortVar = "WORKBENCH_CALLBACK_PORT"
	redirectURLVar  = "WORKBENCH_REDIRECT_URL"
	landingURLVar   = "WORKBENCH_LANDING_URL"
	httpTimeoutVar  = "WORKBENCH_HTTP_TIMEOUT"
)

type Endpoints struct{}

var _ EndpointConfig = Endpoints{}

// GetAuthBaseURL returns the base URL of the authorization-coordination
// service, e.g. "https://workbench.example.com/auth".
func (Endpoints) GetAuthBaseURL() string {
	return strings.TrimSuffix(GetEnv(authBaseURLVar, "http://localhost:8080"), "/")
}

// GetAPIBaseURL returns the base URL used for authenticated API calls.
// Defaults to the coordination service's base URL.
func (e Endpoints) GetAPIBaseURL() string {
	return strings.TrimSuffix(GetEnv(apiBaseURLVar, e.GetAuthBaseURL()), "/")
}

func (Endpoints) GetLoginPath() string {
	return GetEnv(loginPathVar, "/login")
}

func (Endpoints) GetTokenPath() string {
	return GetEnv(tokenPathVar, "/token")
}

func (Endpoints) GetRefreshPath() string {
	return GetEnv(refreshPathVar, "/refresh")
}

func (Endpoints) GetLogoutPath() string {
	return GetEnv(logoutPathVar, "/logout")
}

func (Endpoints) GetCallbackPort() int {
	return GetEnvInt(callbackPortVar, 3000)
}

// GetRedirectURL is where the identity provider sends the user agent back
// to. Defaults to the CLI's loopback callback server.
func (e Endpoints) GetRedirectURL() string {
	return GetEnv(redirectURLVar, fmt.Sprintf("http://127.0.0.1:%d/callback", e.GetCallbackPort()))
}

// GetLandingURL is where the user agent is sent after a successful
// callback. Empty means stay on the callback page.
func (Endpoints) GetLandingURL() string {
	return GetEnv(landingURLVar, "")
}

func (Endpoints) GetHTTPTimeout() time.Duration {
	return GetEnvDuration(httpTimeoutVar, 30*time.Second)
}
