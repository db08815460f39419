// Package auth performs the remote login request, either directly from the
// relay process or from inside the user's active page.
package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-token-relay/browser"
	"github.com/jrsteele09/go-token-relay/credentials"
	"github.com/jrsteele09/go-token-relay/internal/config"
	"github.com/pkg/errors"
)

// Authenticator sends one login request and normalises the response.
// Implementations never return a Go error: every failure is an AuthOutcome.
type Authenticator interface {
	Authenticate(ctx context.Context, creds credentials.Credentials) AuthOutcome
}

// New returns the authenticator selected by cfg. The page authenticator needs
// b; the direct one ignores it.
func New(cfg config.Config, b browser.Browser) (Authenticator, error) {
	switch cfg.GetAuthMode() {
	case config.AuthModeDirect:
		return NewHTTPAuthenticator(cfg.GetAuthEndpoint(), cfg.GetAuthOrigin(), nil)
	default:
		if b == nil {
			return nil, errors.New("[auth New] browser is required for page mode")
		}
		return NewPageAuthenticator(b, cfg.GetAuthEndpoint(), cfg.GetAuthOrigin(), cfg.GetRestrictedSchemes())
	}
}

var _ Authenticator = (*HTTPAuthenticator)(nil)
var _ Authenticator = (*PageAuthenticator)(nil)

func setHeaders(req *http.Request, origin string) {
	for k, v := range requestHeaders(origin) {
		req.Header.Set(k, v)
	}
}
