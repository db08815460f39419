// Package injector writes an access token into a page's localStorage.
package injector

import (
	"context"

	"github.com/jrsteele09/go-token-relay/browser"
	"github.com/jrsteele09/go-token-relay/diaglog"
	relayerrors "github.com/jrsteele09/go-token-relay/internal/errors"
	"github.com/jrsteele09/go-token-relay/targets"
	"github.com/pkg/errors"
)

// DefaultStorageKey is the localStorage key the local application reads.
const DefaultStorageKey = "token"

const setItemFn = `function (key, token) {
  try {
    localStorage.setItem(key, token);
    return { success: true };
  } catch (e) {
    return { success: false, error: e.toString() };
  }
}`

// InjectionResult is the terminal result of one injection attempt.
type InjectionResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

type pageResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type Option func(*Injector)

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) Option {
	return func(i *Injector) {
		if key != "" {
			i.storageKey = key
		}
	}
}

// WithEchoToken returns the full token in successful results instead of a
// truncated preview.
func WithEchoToken(echo bool) Option {
	return func(i *Injector) {
		i.echoToken = echo
	}
}

type Injector struct {
	browser    browser.Browser
	log        diaglog.Log
	storageKey string
	echoToken  bool
}

func New(b browser.Browser, log diaglog.Log, opts ...Option) (*Injector, error) {
	if b == nil {
		return nil, errors.New("[injector New] browser is required")
	}
	if log == nil {
		return nil, errors.New("[injector New] diagnostic log is required")
	}
	i := &Injector{browser: b, log: log, storageKey: DefaultStorageKey}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Inject stores token in the target page. It is not retried and does not undo
// anything on failure.
func (i *Injector) Inject(ctx context.Context, target targets.Descriptor, token string) InjectionResult {
	script, err := browser.Script(setItemFn, i.storageKey, token)
	if err != nil {
		return i.failed(relayerrors.Newf(relayerrors.ErrStorageWriteFailure, "%s", err))
	}

	var result pageResult
	if err := i.browser.RunInPage(ctx, target.PageID, script, &result); err != nil {
		return i.failed(relayerrors.Newf(relayerrors.ErrStorageWriteFailure, "%s", err))
	}
	if !result.Success {
		return i.failed(relayerrors.Newf(relayerrors.ErrStorageWriteFailure, "%s", result.Error))
	}

	preview := diaglog.TruncateToken(token)
	i.log.Append("Token injection executed successfully", map[string]string{"url": target.URL, "token": preview})
	if i.echoToken {
		return InjectionResult{Success: true, Token: token}
	}
	return InjectionResult{Success: true, Token: preview}
}

func (i *Injector) failed(err error) InjectionResult {
	i.log.Append("Error storing token", err.Error())
	return InjectionResult{Success: false, Error: err.Error()}
}
