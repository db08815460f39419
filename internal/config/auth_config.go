package config

const (
	authEndpointEnvVar = "AUTH_ENDPOINT"
	authOriginEnvVar   = "AUTH_ORIGIN"
	authModeEnvVar     = "AUTH_MODE"
	authNextEnvVar     = "AUTH_NEXT"
)

// Authentication request modes.
const (
	AuthModePage   = "page"   // run the request inside the active page
	AuthModeDirect = "direct" // run the request from the relay process
)

type AuthConfig interface {
	GetAuthEndpoint() string
	GetAuthOrigin() string
	GetAuthMode() string
	GetAuthNext() string
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetAuthEndpoint() string {
	return GetEnv(authEndpointEnvVar, "http://localhost/academics/api/v1/auth/staff-login-credentials")
}

func (Auth) GetAuthOrigin() string {
	return GetEnv(authOriginEnvVar, "http://localhost")
}

func (Auth) GetAuthMode() string {
	switch mode := GetEnv(authModeEnvVar, AuthModePage); mode {
	case AuthModeDirect:
		return AuthModeDirect
	default:
		return AuthModePage
	}
}

// GetAuthNext is the "next" value sent with every login request.
func (Auth) GetAuthNext() string {
	return GetEnv(authNextEnvVar, "")
}
