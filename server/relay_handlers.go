package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-token-relay/credentials"
	relayerrors "github.com/jrsteele09/go-token-relay/internal/errors"
	"github.com/jrsteele09/go-token-relay/relay"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	maxBodyBytes    = 1 << 20
)

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// MessageHandler accepts a tagged intent, as the extension popup sent them.
func (s *Server) MessageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg relay.Message
		if !s.decodeAndValidate(w, r, &msg) {
			return
		}
		if msg.Credentials != nil {
			msg.Credentials.Next = s.nextOr(msg.Credentials.Next)
		}
		writeJSON(w, http.StatusOK, s.relay.Handle(r.Context(), msg))
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Credentials are forwarded as submitted, the remote endpoint judges them
		var creds credentials.Credentials
		if !s.decodeAndValidate(w, r, &creds) {
			return
		}
		creds.Next = s.nextOr(creds.Next)
		writeJSON(w, http.StatusOK, s.relay.Login(r.Context(), creds))
	}
}

func (s *Server) StoreTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}
		writeJSON(w, http.StatusOK, s.relay.PropagateToken(r.Context(), req.Token))
	}
}

func (s *Server) LogsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.relay.ReadDiagnosticLog())
	}
}

func (s *Server) ClearLogsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.relay.ClearDiagnosticLog())
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "name": s.config.GetAppName()})
	}
}

// PreflightHandler is only reached for disallowed origins; CorsMiddleware
// answers every OPTIONS request itself.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) nextOr(next string) string {
	if next != "" {
		return next
	}
	return s.config.GetAuthNext()
}

func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeJSONError(w, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !relayerrors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fe.Field()+" failed '"+fe.Tag()+"'")
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}

// writeJSONError uses the same {success,error} shape as every relay reply.
func writeJSONError(w http.ResponseWriter, description string, statusCode int) {
	writeJSON(w, statusCode, relay.ErrorReply{Success: false, Error: description})
}
