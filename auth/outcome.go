package auth

import (
	"encoding/json"

	relayerrors "github.com/jrsteele09/go-token-relay/internal/errors"
	"github.com/jrsteele09/go-token-relay/internal/utils"
)

// LoginData is the data section of the login endpoint's response.
type LoginData struct {
	ValidLogin  bool    `json:"validLogin"`
	AccessToken *string `json:"accessToken,omitempty"`
}

// LoginPayload is the JSON body returned by the login endpoint.
type LoginPayload struct {
	Success bool       `json:"success"`
	Message *string    `json:"message,omitempty"`
	Data    *LoginData `json:"data,omitempty"`
}

// Valid reports whether the server accepted the credentials.
func (p *LoginPayload) Valid() bool {
	return p != nil && p.Success && p.Data != nil && p.Data.ValidLogin
}

// AccessToken is only meaningful when Valid returns true.
func (p *LoginPayload) AccessToken() string {
	if p == nil || p.Data == nil {
		return ""
	}
	return utils.Value(p.Data.AccessToken)
}

// AuthOutcome is the normalised result of one authentication attempt.
// Success implies Payload is set; otherwise Error is.
type AuthOutcome struct {
	Success bool          `json:"success"`
	Payload *LoginPayload `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
	Kind    error         `json:"-"`
}

func succeeded(payload *LoginPayload) AuthOutcome {
	return AuthOutcome{Success: true, Payload: payload}
}

func failed(err error) AuthOutcome {
	return AuthOutcome{Success: false, Error: err.Error(), Kind: relayerrors.KindOf(err)}
}

// Err returns the failure as an error, nil on success.
func (o AuthOutcome) Err() error {
	if o.Success {
		return nil
	}
	kind := o.Kind
	if kind == nil {
		kind = relayerrors.ErrAuthenticationRejected
	}
	return relayerrors.Newf(kind, "%s", o.Error)
}

// NormaliseResponse turns an HTTP status and body into an AuthOutcome. Both
// the direct and the in-page request paths go through here.
func NormaliseResponse(status int, body []byte) AuthOutcome {
	if status < 200 || status >= 300 {
		return failed(relayerrors.Newf(relayerrors.ErrAuthenticationRejected, "status %d: %s", status, body))
	}

	var payload LoginPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return failed(relayerrors.Newf(relayerrors.ErrResponseParseFailure, "parse failure: %s", err))
	}
	return succeeded(&payload)
}

func networkFailure() AuthOutcome {
	return failed(relayerrors.Newf(relayerrors.ErrNetworkFailure, "network error"))
}

// requestHeaders is the fixed header set sent with every login request.
func requestHeaders(origin string) map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Accept":        "*/*",
		"Origin":        origin,
		"Cache-Control": "no-cache",
	}
}
