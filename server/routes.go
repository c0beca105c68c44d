package server

func (s *Server) initRoutes() {
	// Coordination endpoints
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.Login(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteToken, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRefresh, ChainMiddleware(s.Refresh(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.Logout(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteJWKS, ChainMiddleware(s.JWKS(), s.APIMiddleware()...))

	// Protected API
	s.RegisterRouteHandler("GET "+RouteAPIMe, ChainMiddleware(s.Me(), s.APIMiddleware()...))

	// Identity provider
	s.RegisterRouteHandler("GET "+RouteIDPAuthorize, ChainMiddleware(s.Authorize(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteIDPLogout, ChainMiddleware(s.IDPLogout(), s.HTMLMiddleWare()...))
}
