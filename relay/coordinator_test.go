package relay_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-token-relay/auth"
	"github.com/jrsteele09/go-token-relay/browser"
	"github.com/jrsteele09/go-token-relay/browser/fakebrowser"
	"github.com/jrsteele09/go-token-relay/credentials"
	"github.com/jrsteele09/go-token-relay/diaglog"
	"github.com/jrsteele09/go-token-relay/injector"
	"github.com/jrsteele09/go-token-relay/internal/utils"
	"github.com/jrsteele09/go-token-relay/relay"
	"github.com/jrsteele09/go-token-relay/targets"
	"github.com/stretchr/testify/require"
)

const (
	localPageID  = "local-app"
	remotePageID = "school-portal"
	testToken    = "abc123"
)

var alice = credentials.New("alice", "pw", credentials.UserTypeStaff, "")

// fakeAuthenticator returns a canned outcome and counts calls.
type fakeAuthenticator struct {
	lock    sync.Mutex
	outcome auth.AuthOutcome
	calls   int
}

func (fa *fakeAuthenticator) Authenticate(ctx context.Context, creds credentials.Credentials) auth.AuthOutcome {
	fa.lock.Lock()
	defer fa.lock.Unlock()
	fa.calls++
	return fa.outcome
}

func validOutcome(token string) auth.AuthOutcome {
	return auth.AuthOutcome{Success: true, Payload: &auth.LoginPayload{
		Success: true,
		Data:    &auth.LoginData{ValidLogin: true, AccessToken: utils.Ptr(token)},
	}}
}

type testFixture struct {
	browser     *fakebrowser.FakeBrowser
	log         *diaglog.RingLog
	auth        *fakeAuthenticator
	coordinator *relay.Coordinator

	lock       sync.Mutex
	storage    map[string]string
	injections int
}

func setupTestFixture(t *testing.T, pages ...browser.Page) *testFixture {
	t.Helper()

	f := &testFixture{
		browser: fakebrowser.NewFakeBrowser(pages...),
		log:     diaglog.NewRingLog(),
		auth:    &fakeAuthenticator{outcome: validOutcome(testToken)},
		storage: make(map[string]string),
	}
	f.browser.OnRun(localPageID, func(script string) (any, error) {
		f.lock.Lock()
		defer f.lock.Unlock()
		f.injections++
		f.storage["token"] = testToken
		return map[string]any{"success": true}, nil
	})

	resolver, err := targets.NewResolver(f.browser, f.log)
	require.NoError(t, err)
	inj, err := injector.New(f.browser, f.log, injector.WithEchoToken(true))
	require.NoError(t, err)

	f.coordinator, err = relay.New(f.auth, resolver, inj, f.log,
		relay.WithTargetPatterns([]string{"http://localhost:8080/*"}),
		relay.WithNowTime(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	return f
}

func localPage() browser.Page {
	return browser.Page{ID: localPageID, URL: "http://localhost:8080/"}
}

func TestLogin_EndToEndSuccess(t *testing.T) {
	f := setupTestFixture(t, browser.Page{ID: remotePageID, URL: "http://school.test/"}, localPage())

	result := f.coordinator.Login(context.Background(), alice)
	require.True(t, result.Success)
	require.Empty(t, result.Error)
	require.NotNil(t, result.Data)
	require.True(t, result.Data.Valid())
	require.Equal(t, testToken, result.Data.AccessToken())
	require.Equal(t, relay.InjectionSucceeded, result.State)

	require.Equal(t, 1, f.injections)
	require.Equal(t, testToken, f.storage["token"])
	calls := f.browser.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, localPageID, calls[0].PageID)
}

func TestLogin_InvalidLoginNeverInjects(t *testing.T) {
	f := setupTestFixture(t, localPage())
	f.auth.outcome = auth.AuthOutcome{Success: true, Payload: &auth.LoginPayload{
		Success: true,
		Message: utils.Ptr("Account locked"),
		Data:    &auth.LoginData{ValidLogin: false},
	}}

	result := f.coordinator.Login(context.Background(), alice)
	require.False(t, result.Success)
	require.Nil(t, result.Data)
	require.Equal(t, "Account locked", result.Error)
	require.Equal(t, relay.AuthFailed, result.State)
	require.Zero(t, f.injections)
	require.Empty(t, f.browser.Calls())
}

func TestLogin_InvalidLoginWithoutMessage(t *testing.T) {
	f := setupTestFixture(t, localPage())
	f.auth.outcome = auth.AuthOutcome{Success: true, Payload: &auth.LoginPayload{Success: false}}

	result := f.coordinator.Login(context.Background(), alice)
	require.False(t, result.Success)
	require.Equal(t, "Invalid credentials", result.Error)
	require.Zero(t, f.injections)
}

func TestLogin_RejectedByServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad creds"))
	}))
	defer srv.Close()

	f := setupTestFixture(t, localPage())
	direct, err := auth.NewHTTPAuthenticator(srv.URL, "http://localhost", nil)
	require.NoError(t, err)
	resolver, err := targets.NewResolver(f.browser, f.log)
	require.NoError(t, err)
	inj, err := injector.New(f.browser, f.log)
	require.NoError(t, err)
	c, err := relay.New(direct, resolver, inj, f.log)
	require.NoError(t, err)

	result := c.Login(context.Background(), alice)
	require.False(t, result.Success)
	require.Nil(t, result.Data)
	require.Equal(t, "status 401: bad creds", result.Error)
	require.Zero(t, f.injections)

	found := false
	for _, e := range c.ReadDiagnosticLog().Logs {
		if e.Data != nil && strings.Contains(*e.Data, "status 401: bad creds") {
			found = true
		}
	}
	require.True(t, found, "diagnostic log should reference the failure")
}

func TestLogin_NoTargetAfterSuccessfulAuth(t *testing.T) {
	f := setupTestFixture(t, browser.Page{ID: remotePageID, URL: "http://school.test/"})

	result := f.coordinator.Login(context.Background(), alice)
	require.False(t, result.Success)
	require.Nil(t, result.Data)
	require.Equal(t, "no active tab found for http://localhost:8080/*", result.Error)
	require.Equal(t, relay.InjectionFailed, result.State)
	require.Equal(t, 1, f.auth.calls)
}

func TestLogin_ExactlyOneOfDataOrError(t *testing.T) {
	outcomes := []auth.AuthOutcome{
		validOutcome(testToken),
		validOutcome(""),
		{Success: false, Error: "network error"},
		{Success: true, Payload: &auth.LoginPayload{Success: true}},
		{Success: true, Payload: &auth.LoginPayload{Success: true, Data: &auth.LoginData{ValidLogin: false}}},
	}

	for _, withTarget := range []bool{true, false} {
		for _, outcome := range outcomes {
			var f *testFixture
			if withTarget {
				f = setupTestFixture(t, localPage())
			} else {
				f = setupTestFixture(t)
			}
			f.auth.outcome = outcome

			result := f.coordinator.Login(context.Background(), alice)
			if result.Success {
				require.NotNil(t, result.Data)
				require.Empty(t, result.Error)
			} else {
				require.Nil(t, result.Data)
				require.NotEmpty(t, result.Error)
			}
		}
	}
}

func TestLogin_PasswordNeverLogged(t *testing.T) {
	f := setupTestFixture(t, localPage())
	creds := credentials.New("alice", "s3cret-pw", credentials.UserTypeStaff, "")

	f.coordinator.Login(context.Background(), creds)

	for _, e := range f.coordinator.ReadDiagnosticLog().Logs {
		require.NotContains(t, e.Message, "s3cret-pw")
		if e.Data != nil {
			require.NotContains(t, *e.Data, "s3cret-pw")
		}
	}
}

func TestPropagateToken_NoMatchingTarget(t *testing.T) {
	f := setupTestFixture(t, browser.Page{ID: remotePageID, URL: "http://localhost:3000/"})

	result := f.coordinator.PropagateToken(context.Background(), testToken)
	require.False(t, result.Success)
	require.True(t, strings.HasPrefix(result.Error, "no active tab found"))
	require.Empty(t, result.Token)
}

func TestPropagateToken_Success(t *testing.T) {
	f := setupTestFixture(t, localPage())

	result := f.coordinator.PropagateToken(context.Background(), testToken)
	require.True(t, result.Success)
	require.Equal(t, testToken, result.Token)
	require.Equal(t, testToken, f.storage["token"])
}

func TestDiagnosticLog_BoundedAndClearable(t *testing.T) {
	f := setupTestFixture(t)

	for i := 0; i < 60; i++ {
		f.log.Append("entry", i)
	}
	logs := f.coordinator.ReadDiagnosticLog().Logs
	require.Len(t, logs, diaglog.DefaultCapacity)
	require.Equal(t, "10", *logs[0].Data)

	require.Equal(t, relay.AckReply{Success: true}, f.coordinator.ClearDiagnosticLog())
	require.Empty(t, f.coordinator.ReadDiagnosticLog().Logs)
	require.Equal(t, relay.AckReply{Success: true}, f.coordinator.ClearDiagnosticLog())
	require.NotNil(t, f.coordinator.ReadDiagnosticLog().Logs)
}

func TestHandle_Dispatch(t *testing.T) {
	f := setupTestFixture(t, localPage())
	ctx := context.Background()

	login := f.coordinator.Handle(ctx, relay.Message{Action: relay.ActionLogin, Credentials: &alice})
	require.IsType(t, relay.LoginResult{}, login)
	require.True(t, login.(relay.LoginResult).Success)

	store := f.coordinator.Handle(ctx, relay.Message{Action: relay.ActionStoreToken, Token: testToken})
	require.IsType(t, injector.InjectionResult{}, store)

	logs := f.coordinator.Handle(ctx, relay.Message{Action: relay.ActionGetDebugLogs})
	require.NotEmpty(t, logs.(relay.LogsReply).Logs)

	ack := f.coordinator.Handle(ctx, relay.Message{Action: relay.ActionClearDebugLogs})
	require.Equal(t, relay.AckReply{Success: true}, ack)

	unknown := f.coordinator.Handle(ctx, relay.Message{Action: "reboot"})
	require.Equal(t, relay.ErrorReply{Error: "unknown action: reboot"}, unknown)

	missing := f.coordinator.Handle(ctx, relay.Message{Action: relay.ActionLogin})
	require.Equal(t, relay.ErrorReply{Error: "missing credentials"}, missing)
}

func TestLogin_ConcurrentRequestsAreIndependent(t *testing.T) {
	f := setupTestFixture(t, localPage())

	var wg sync.WaitGroup
	results := make([]relay.LoginResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.coordinator.Login(context.Background(), alice)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.True(t, r.Success)
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	f := setupTestFixture(t)
	resolver, err := targets.NewResolver(f.browser, f.log)
	require.NoError(t, err)
	inj, err := injector.New(f.browser, f.log)
	require.NoError(t, err)

	_, err = relay.New(nil, resolver, inj, f.log)
	require.Error(t, err)
	_, err = relay.New(f.auth, nil, inj, f.log)
	require.Error(t, err)
	_, err = relay.New(f.auth, resolver, nil, f.log)
	require.Error(t, err)
	_, err = relay.New(f.auth, resolver, inj, nil)
	require.Error(t, err)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "awaitingAuth", relay.AwaitingAuth.String())
	require.Equal(t, "State(42)", relay.State(42).String())

	var s relay.State
	require.NoError(t, s.UnmarshalText([]byte("injectionFailed")))
	require.Equal(t, relay.InjectionFailed, s)
}
