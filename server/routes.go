package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.LoggingMiddleware, s.RecoverMiddleware))

	// Intent routes
	s.RegisterRouteHandler("POST "+RouteMessage, ChainMiddleware(s.MessageHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteToken, ChainMiddleware(s.StoreTokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteLogs, ChainMiddleware(s.LogsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteLogs, ChainMiddleware(s.ClearLogsHandler(), s.APIMiddleware()...))

	// Preflight for the API routes
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))
}
