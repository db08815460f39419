package auth

import (
	"context"

	"github.com/jrsteele09/go-token-relay/browser"
	"github.com/jrsteele09/go-token-relay/credentials"
	relayerrors "github.com/jrsteele09/go-token-relay/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// loginFetchFn runs inside the page, so the request carries the page's origin
// and cookies. It reports the raw status and body, normalisation happens in
// Go.
const loginFetchFn = `async function (endpoint, headers, credentials) {
  try {
    const response = await fetch(endpoint, {
      method: 'POST',
      headers: headers,
      credentials: 'include',
      body: JSON.stringify(credentials)
    });
    const body = await response.text();
    return { status: response.status, body: body };
  } catch (e) {
    return { networkError: String(e) };
  }
}`

type pageFetchResult struct {
	Status       int    `json:"status"`
	Body         string `json:"body"`
	NetworkError string `json:"networkError"`
}

// PageAuthenticator delegates the login request to the active page.
type PageAuthenticator struct {
	browser           browser.Browser
	endpoint          string
	origin            string
	restrictedSchemes []string
}

func NewPageAuthenticator(b browser.Browser, endpoint, origin string, restrictedSchemes []string) (*PageAuthenticator, error) {
	if b == nil {
		return nil, errors.New("[NewPageAuthenticator] browser is required")
	}
	if endpoint == "" {
		return nil, errors.New("[NewPageAuthenticator] endpoint is required")
	}
	return &PageAuthenticator{
		browser:           b,
		endpoint:          endpoint,
		origin:            origin,
		restrictedSchemes: restrictedSchemes,
	}, nil
}

func (a *PageAuthenticator) Authenticate(ctx context.Context, creds credentials.Credentials) AuthOutcome {
	page, err := a.browser.ActivePage(ctx)
	if err != nil {
		if relayerrors.KindOf(err) == nil {
			err = relayerrors.Newf(relayerrors.ErrNoActiveTarget, "%s", err)
		}
		return failed(err)
	}

	if scheme, restricted := browser.RestrictedScheme(page.URL, a.restrictedSchemes); restricted {
		return failed(relayerrors.Newf(relayerrors.ErrRestrictedTargetScheme, "cannot access a %s URL", scheme))
	}

	script, err := browser.Script(loginFetchFn, a.endpoint, requestHeaders(a.origin), creds)
	if err != nil {
		return failed(relayerrors.Newf(relayerrors.ErrScriptInjectionFailed, "%s", err))
	}

	var result pageFetchResult
	if err := a.browser.RunInPage(ctx, page.ID, script, &result); err != nil {
		return failed(relayerrors.Newf(relayerrors.ErrScriptInjectionFailed, "%s", err))
	}
	if result.NetworkError != "" {
		log.Warn().Str("endpoint", a.endpoint).Str("page", page.ID).Str("detail", result.NetworkError).Msg("In-page login request failed")
		return networkFailure()
	}
	return NormaliseResponse(result.Status, []byte(result.Body))
}
