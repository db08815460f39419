// Package submitter is the client side of the relay: it sends intents to the
// relay's HTTP API and renders the outcome for the user.
package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-token-relay/credentials"
	"github.com/jrsteele09/go-token-relay/injector"
	"github.com/jrsteele09/go-token-relay/relay"
	"github.com/pkg/errors"
)

// DefaultRelayURL is where cmd/server listens by default.
const DefaultRelayURL = "http://127.0.0.1:8787"

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the relay at baseURL. A nil httpClient uses
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[NewClient] relay URL is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}, nil
}

// Login sends a loginRequest intent.
func (c *Client) Login(ctx context.Context, creds credentials.Credentials) (relay.LoginResult, error) {
	var result relay.LoginResult
	err := c.send(ctx, relay.Message{Action: relay.ActionLogin, Credentials: &creds}, &result)
	return result, err
}

// StoreToken sends a storeToken intent.
func (c *Client) StoreToken(ctx context.Context, token string) (injector.InjectionResult, error) {
	var result injector.InjectionResult
	err := c.send(ctx, relay.Message{Action: relay.ActionStoreToken, Token: token}, &result)
	return result, err
}

func (c *Client) Logs(ctx context.Context) (relay.LogsReply, error) {
	var reply relay.LogsReply
	err := c.send(ctx, relay.Message{Action: relay.ActionGetDebugLogs}, &reply)
	return reply, err
}

func (c *Client) ClearLogs(ctx context.Context) (relay.AckReply, error) {
	var reply relay.AckReply
	err := c.send(ctx, relay.Message{Action: relay.ActionClearDebugLogs}, &reply)
	return reply, err
}

func (c *Client) send(ctx context.Context, msg relay.Message, reply any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encode message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/message", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "relay %s unreachable", c.baseURL)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read reply")
	}
	if resp.StatusCode != http.StatusOK {
		var failure relay.ErrorReply
		if json.Unmarshal(raw, &failure) == nil && failure.Error != "" {
			return fmt.Errorf("relay rejected %s: %s", msg.Action, failure.Error)
		}
		return fmt.Errorf("relay rejected %s: status %d", msg.Action, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, reply); err != nil {
		return errors.Wrapf(err, "decode %s reply", msg.Action)
	}
	return nil
}
