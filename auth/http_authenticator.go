package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"

	"github.com/jrsteele09/go-token-relay/credentials"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// HTTPAuthenticator posts the credentials from the relay process. Cookies set
// by the login server are kept in the client's jar and sent with later
// requests.
type HTTPAuthenticator struct {
	client   *http.Client
	endpoint string
	origin   string
}

// NewHTTPAuthenticator creates a direct authenticator. A nil client gets a
// default one with a cookie jar and no timeout.
func NewHTTPAuthenticator(endpoint, origin string, client *http.Client) (*HTTPAuthenticator, error) {
	if endpoint == "" {
		return nil, errors.New("[NewHTTPAuthenticator] endpoint is required")
	}
	if client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, errors.Wrap(err, "[NewHTTPAuthenticator] failed to create cookie jar")
		}
		client = &http.Client{Jar: jar}
	}
	return &HTTPAuthenticator{client: client, endpoint: endpoint, origin: origin}, nil
}

func (a *HTTPAuthenticator) Authenticate(ctx context.Context, creds credentials.Credentials) AuthOutcome {
	body, err := json.Marshal(creds)
	if err != nil {
		log.Err(err).Msg("Failed to encode credentials")
		return networkFailure()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		log.Err(err).Str("endpoint", a.endpoint).Msg("Failed to build login request")
		return networkFailure()
	}
	setHeaders(req, a.origin)

	resp, err := a.client.Do(req)
	if err != nil {
		log.Err(err).Str("endpoint", a.endpoint).Msg("Login request failed")
		return networkFailure()
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Err(err).Int("status", resp.StatusCode).Msg("Failed to read login response")
		return networkFailure()
	}
	return NormaliseResponse(resp.StatusCode, respBody)
}
