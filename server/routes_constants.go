package server

// Route path constants
const (
	// Coordination endpoints consumed by the session manager
	RouteLogin   = "/login"
	RouteToken   = "/token"
	RouteRefresh = "/refresh"
	RouteLogout  = "/logout"
	RouteJWKS    = "/.well-known/jwks.json"

	// Protected API
	RouteAPIMe = "/api/me"

	// Stand-in identity provider
	RouteIDPAuthorize = "/idp/authorize"
	RouteIDPLogout    = "/idp/logout"
)
