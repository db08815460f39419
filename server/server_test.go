package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-token-relay/auth"
	"github.com/jrsteele09/go-token-relay/browser"
	"github.com/jrsteele09/go-token-relay/browser/fakebrowser"
	"github.com/jrsteele09/go-token-relay/diaglog"
	"github.com/jrsteele09/go-token-relay/injector"
	"github.com/jrsteele09/go-token-relay/internal/config"
	"github.com/jrsteele09/go-token-relay/relay"
	"github.com/jrsteele09/go-token-relay/server"
	"github.com/jrsteele09/go-token-relay/targets"
	"github.com/stretchr/testify/require"
)

const (
	popupOrigin = "http://localhost:8080"
	localPageID = "local-app"
)

type testFixture struct {
	loginStatus int
	loginBody   string
	loginCalls  atomic.Int32
	browser     *fakebrowser.FakeBrowser
	relay       *httptest.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("ALLOWED_ORIGINS", popupOrigin)

	f := &testFixture{
		loginStatus: http.StatusOK,
		loginBody:   `{"success":true,"data":{"validLogin":true,"accessToken":"abc123"}}`,
		browser:     fakebrowser.NewFakeBrowser(browser.Page{ID: localPageID, URL: "http://localhost:8080/"}),
	}
	f.browser.OnRun(localPageID, func(string) (any, error) {
		return map[string]any{"success": true}, nil
	})

	loginSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.loginCalls.Add(1)
		w.WriteHeader(f.loginStatus)
		_, _ = io.WriteString(w, f.loginBody)
	}))
	t.Cleanup(loginSrv.Close)

	log := diaglog.NewRingLog()
	authenticator, err := auth.NewHTTPAuthenticator(loginSrv.URL, "http://localhost", nil)
	require.NoError(t, err)
	resolver, err := targets.NewResolver(f.browser, log)
	require.NoError(t, err)
	inj, err := injector.New(f.browser, log)
	require.NoError(t, err)
	coordinator, err := relay.New(authenticator, resolver, inj, log)
	require.NoError(t, err)

	s, err := server.New(config.New(), coordinator)
	require.NoError(t, err)
	f.relay = httptest.NewServer(s)
	t.Cleanup(f.relay.Close)
	return f
}

func (f *testFixture) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, f.relay.URL+path, reader)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp, decoded
}

func TestMessage_LoginRequest(t *testing.T) {
	f := setupTestFixture(t)

	resp, body := f.do(t, http.MethodPost, server.RouteMessage, map[string]any{
		"action":      relay.ActionLogin,
		"credentials": map[string]string{"username": "alice", "password": "pw", "userType": "staff", "next": ""},
	}, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	require.Equal(t, true, body["success"])
	require.NotContains(t, body, "error")
	data := body["data"].(map[string]any)
	require.Equal(t, true, data["data"].(map[string]any)["validLogin"])
	require.Len(t, f.browser.Calls(), 1)
}

func TestMessage_RejectedLogin(t *testing.T) {
	f := setupTestFixture(t)
	f.loginStatus = http.StatusUnauthorized
	f.loginBody = "bad creds"

	_, body := f.do(t, http.MethodPost, server.RouteMessage, map[string]any{
		"action":      relay.ActionLogin,
		"credentials": map[string]string{"username": "alice", "password": "pw", "userType": "staff"},
	}, nil)

	require.Equal(t, false, body["success"])
	require.Equal(t, "status 401: bad creds", body["error"])
	require.NotContains(t, body, "data")
	require.Empty(t, f.browser.Calls())
}

func TestMessage_EnvelopeValidation(t *testing.T) {
	f := setupTestFixture(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing action", map[string]any{}},
		{"unknown action", map[string]any{"action": "reboot"}},
		{"login without credentials", map[string]any{"action": relay.ActionLogin}},
		{"store without token", map[string]any{"action": relay.ActionStoreToken}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.do(t, http.MethodPost, server.RouteMessage, tt.body, nil)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Equal(t, false, body["success"])
			require.NotEmpty(t, body["error"])
		})
	}
	require.Zero(t, f.loginCalls.Load())
}

func TestMessage_InvalidJSON(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := http.Post(f.relay.URL+server.RouteMessage, "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginRoute(t *testing.T) {
	f := setupTestFixture(t)

	_, body := f.do(t, http.MethodPost, server.RouteLogin, map[string]string{
		"username": "alice", "password": "pw", "userType": "staff",
	}, nil)
	require.Equal(t, true, body["success"])
	require.Equal(t, int32(1), f.loginCalls.Load())
}

func TestTokenRoute(t *testing.T) {
	f := setupTestFixture(t)

	_, body := f.do(t, http.MethodPost, server.RouteToken, map[string]string{"token": "abc123"}, nil)
	require.Equal(t, true, body["success"])

	resp, _ := f.do(t, http.MethodPost, server.RouteToken, map[string]string{}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogsRoutes(t *testing.T) {
	f := setupTestFixture(t)

	f.do(t, http.MethodPost, server.RouteToken, map[string]string{"token": "abc123"}, nil)

	_, body := f.do(t, http.MethodGet, server.RouteLogs, nil, nil)
	require.NotEmpty(t, body["logs"])

	_, body = f.do(t, http.MethodDelete, server.RouteLogs, nil, nil)
	require.Equal(t, map[string]any{"success": true}, body)

	_, body = f.do(t, http.MethodGet, server.RouteLogs, nil, nil)
	require.Equal(t, []any{}, body["logs"])
}

func TestHealth(t *testing.T) {
	f := setupTestFixture(t)

	resp, body := f.do(t, http.MethodGet, server.RouteHealth, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
}

func TestCors(t *testing.T) {
	f := setupTestFixture(t)

	resp, _ := f.do(t, http.MethodOptions, server.RouteLogin, nil, map[string]string{"Origin": popupOrigin})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, popupOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")

	resp, _ = f.do(t, http.MethodGet, server.RouteLogs, nil, map[string]string{"Origin": popupOrigin})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, popupOrigin, resp.Header.Get("Access-Control-Allow-Origin"))

	resp, body := f.do(t, http.MethodPost, server.RouteLogin, map[string]string{"username": "alice"}, map[string]string{"Origin": "http://evil.test"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, false, body["success"])
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	require.Zero(t, f.loginCalls.Load())
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := server.New(nil, nil)
	require.Error(t, err)
	_, err = server.New(config.New(), nil)
	require.Error(t, err)
}
