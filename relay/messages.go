package relay

import (
	"github.com/jrsteele09/go-token-relay/auth"
	"github.com/jrsteele09/go-token-relay/credentials"
	"github.com/jrsteele09/go-token-relay/diaglog"
)

// Intent names accepted by Handle.
const (
	ActionLogin          = "loginRequest"
	ActionStoreToken     = "storeToken"
	ActionGetDebugLogs   = "getDebugLogs"
	ActionClearDebugLogs = "clearDebugLogs"
)

// Message is a tagged intent from the submitter.
type Message struct {
	Action      string                   `json:"action" validate:"required,oneof=loginRequest storeToken getDebugLogs clearDebugLogs"`
	Credentials *credentials.Credentials `json:"credentials,omitempty" validate:"required_if=Action loginRequest"`
	Token       string                   `json:"token,omitempty" validate:"required_if=Action storeToken"`
}

// LoginResult is the single reply to a login intent. Exactly one of Data and
// Error is set.
type LoginResult struct {
	Success bool               `json:"success"`
	Data    *auth.LoginPayload `json:"data,omitempty"`
	Error   string             `json:"error,omitempty"`
	State   State              `json:"state"`
}

type LogsReply struct {
	Logs []diaglog.Entry `json:"logs"`
}

type AckReply struct {
	Success bool `json:"success"`
}

// ErrorReply answers an intent that could not be dispatched.
type ErrorReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
