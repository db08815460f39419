// Package relay coordinates a login: authenticate, pick the target page, and
// deliver the access token to it.
package relay

import (
	"context"
	"time"

	"github.com/jrsteele09/go-token-relay/auth"
	"github.com/jrsteele09/go-token-relay/credentials"
	"github.com/jrsteele09/go-token-relay/diaglog"
	"github.com/jrsteele09/go-token-relay/injector"
	relayerrors "github.com/jrsteele09/go-token-relay/internal/errors"
	"github.com/jrsteele09/go-token-relay/internal/utils"
	"github.com/jrsteele09/go-token-relay/targets"
	"github.com/jrsteele09/go-token-relay/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const invalidCredentialsMsg = "Invalid credentials"

// TargetResolver selects the page a token is delivered to.
type TargetResolver interface {
	Resolve(ctx context.Context, patterns []string) (targets.Descriptor, error)
}

// TokenInjector writes a token into a resolved page.
type TokenInjector interface {
	Inject(ctx context.Context, target targets.Descriptor, token string) injector.InjectionResult
}

// DefaultTargetPatterns are the pages of the local application.
var DefaultTargetPatterns = []string{"http://localhost:8080/*", "http://[::1]:8080/*"}

// Option is a functional option for configuring the Coordinator.
type Option func(*Coordinator)

func WithTargetPatterns(patterns []string) Option {
	return func(c *Coordinator) {
		if len(patterns) > 0 {
			c.patterns = append([]string(nil), patterns...)
		}
	}
}

// WithNowTime sets a custom time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Coordinator) {
		c.nowTime = nowFunc
	}
}

// WithRequestTimeout bounds each intent. Zero leaves requests unbounded.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = timeout
	}
}

// Coordinator is the hub between the submitter and the page-side
// collaborators. It holds no per-request state, so concurrent intents each run
// independently; the diagnostic log is the only shared resource.
type Coordinator struct {
	authenticator auth.Authenticator
	resolver      TargetResolver
	injector      TokenInjector
	log           diaglog.Log
	patterns      []string
	timeout       time.Duration
	nowTime       func() time.Time
}

func New(authenticator auth.Authenticator, resolver TargetResolver, tokenInjector TokenInjector, log diaglog.Log, opts ...Option) (*Coordinator, error) {
	if authenticator == nil {
		return nil, errors.New("[relay New] authenticator is required")
	}
	if resolver == nil {
		return nil, errors.New("[relay New] target resolver is required")
	}
	if tokenInjector == nil {
		return nil, errors.New("[relay New] token injector is required")
	}
	if log == nil {
		return nil, errors.New("[relay New] diagnostic log is required")
	}

	c := &Coordinator{
		authenticator: authenticator,
		resolver:      resolver,
		injector:      tokenInjector,
		log:           log,
		patterns:      DefaultTargetPatterns,
		nowTime:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Coordinator) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// Login authenticates creds and, when the server accepts them, stores the
// access token in the target page. A failed injection does not undo the
// remote login.
func (c *Coordinator) Login(ctx context.Context, creds credentials.Credentials) LoginResult {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	r := newRun(c.log, c.nowTime())
	c.log.Append("Login request received", creds.LogFields())

	r.to(AwaitingAuth)
	outcome := c.authenticator.Authenticate(ctx, creds)
	if !outcome.Success {
		return c.loginFailed(r, AuthFailed, outcome.Err())
	}
	payload := outcome.Payload
	c.log.Append("Login request result", map[string]any{"requestId": r.id, "validLogin": payload.Valid()})

	if !payload.Valid() {
		message := invalidCredentialsMsg
		if payload != nil && utils.Value(payload.Message) != "" {
			message = *payload.Message
		}
		return c.loginFailed(r, AuthFailed, relayerrors.Newf(relayerrors.ErrAuthenticationRejected, "%s", message))
	}

	accessToken := payload.AccessToken()
	if accessToken == "" {
		return c.loginFailed(r, AuthFailed, relayerrors.Newf(relayerrors.ErrResponseParseFailure, "no access token in login response"))
	}
	r.to(AuthSucceeded)
	c.log.Append("Access token received", token.Introspect(accessToken, c.nowTime()))

	r.to(AwaitingInjection)
	result := c.propagate(ctx, accessToken)
	if !result.Success {
		return c.loginFailed(r, InjectionFailed, errors.New(result.Error))
	}

	r.to(InjectionSucceeded)
	r.to(Done)
	log.Info().Str("requestId", r.id).Str("username", creds.Username).
		Dur("elapsed", c.nowTime().Sub(r.started)).Msg("Login relayed")
	return LoginResult{Success: true, Data: payload, State: InjectionSucceeded}
}

func (c *Coordinator) loginFailed(r *run, state State, err error) LoginResult {
	r.to(state)
	c.log.Append("Login failed", map[string]string{"requestId": r.id, "state": state.String(), "error": err.Error()})
	r.to(Done)
	log.Warn().Str("requestId", r.id).Str("state", state.String()).Msg("Login not relayed")
	return LoginResult{Success: false, Error: err.Error(), State: state}
}

// PropagateToken stores token in the target page without logging in.
func (c *Coordinator) PropagateToken(ctx context.Context, token string) injector.InjectionResult {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	c.log.Append("Storing token request received", map[string]string{"token": diaglog.TruncateToken(token)})
	result := c.propagate(ctx, token)
	c.log.Append("Store token result", map[string]any{"success": result.Success, "error": result.Error})
	return result
}

func (c *Coordinator) propagate(ctx context.Context, token string) injector.InjectionResult {
	target, err := c.resolver.Resolve(ctx, c.patterns)
	if err != nil {
		c.log.Append("Error storing token", err.Error())
		return injector.InjectionResult{Success: false, Error: err.Error()}
	}
	return c.injector.Inject(ctx, target, token)
}

// ReadDiagnosticLog returns the retained log entries, oldest first.
func (c *Coordinator) ReadDiagnosticLog() LogsReply {
	entries, err := c.log.Entries()
	if err != nil {
		log.Err(err).Msg("Failed to read diagnostic log")
	}
	if entries == nil {
		entries = []diaglog.Entry{}
	}
	return LogsReply{Logs: entries}
}

func (c *Coordinator) ClearDiagnosticLog() AckReply {
	if err := c.log.Clear(); err != nil {
		log.Err(err).Msg("Failed to clear diagnostic log")
	}
	return AckReply{Success: true}
}

// Handle dispatches a tagged intent and returns its reply.
func (c *Coordinator) Handle(ctx context.Context, msg Message) any {
	switch msg.Action {
	case ActionLogin:
		if msg.Credentials == nil {
			return ErrorReply{Error: "missing credentials"}
		}
		return c.Login(ctx, *msg.Credentials)
	case ActionStoreToken:
		if msg.Token == "" {
			return ErrorReply{Error: "missing token"}
		}
		return c.PropagateToken(ctx, msg.Token)
	case ActionGetDebugLogs:
		return c.ReadDiagnosticLog()
	case ActionClearDebugLogs:
		return c.ClearDiagnosticLog()
	default:
		return ErrorReply{Error: "unknown action: " + msg.Action}
	}
}
