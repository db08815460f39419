package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-token-relay/credentials"
	"github.com/jrsteele09/go-token-relay/injector"
	"github.com/jrsteele09/go-token-relay/internal/config"
	"github.com/jrsteele09/go-token-relay/relay"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Relay is the coordinator the HTTP API exposes.
type Relay interface {
	Login(ctx context.Context, creds credentials.Credentials) relay.LoginResult
	PropagateToken(ctx context.Context, token string) injector.InjectionResult
	ReadDiagnosticLog() relay.LogsReply
	ClearDiagnosticLog() relay.AckReply
	Handle(ctx context.Context, msg relay.Message) any
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	relay    Relay
	validate *validator.Validate
}

func New(config config.Config, coordinator Relay) (*Server, error) {
	if config == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if coordinator == nil {
		return nil, errors.New("[Server New] relay is required")
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		relay:    coordinator,
		validate: validator.New(),
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered route patterns.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

func logRoute(method, path string) {
	log.Printf("[%-19s] %s", colouredMethod(method), path)
}

func logError(method, path, error string) {
	log.Printf("[%-19s] %s %s", colouredMethod(method), path, Red+error+ResetColor)
}
