package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-token-relay/diaglog"
)

// Introspection describes an access token without exposing it. The relay has
// no key material for the remote issuer, so claims are read unverified and are
// only ever used for diagnostics.
type Introspection struct {
	Preview   string     `json:"token"`
	IsJWT     bool       `json:"isJwt"`
	Subject   string     `json:"subject,omitempty"`
	Issuer    string     `json:"issuer,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Expired   bool       `json:"expired,omitempty"`
}

// Introspect returns the diagnostic view of rawToken as of now.
func Introspect(rawToken string, now time.Time) Introspection {
	info := Introspection{Preview: diaglog.TruncateToken(rawToken)}
	if strings.Count(rawToken, ".") != 2 {
		return info
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return info
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return info
	}

	info.IsJWT = true
	info.Subject, _ = claims.GetSubject()
	info.Issuer, _ = claims.GetIssuer()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt := exp.Time.UTC()
		info.ExpiresAt = &expiresAt
		info.Expired = !now.Before(expiresAt)
	}
	return info
}
