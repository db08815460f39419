package server

// Route path constants
const (
	RouteMessage = "/api/message"
	RouteLogin   = "/api/login"
	RouteToken   = "/api/token"
	RouteLogs    = "/api/logs"
	RouteHealth  = "/health"
)
