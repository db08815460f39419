package config

const (
	cdpURLEnvVar            = "CDP_URL"
	headlessEnvVar          = "HEADLESS"
	targetPatternsEnvVar    = "TARGET_PATTERNS"
	storageKeyEnvVar        = "STORAGE_KEY"
	restrictedSchemesEnvVar = "RESTRICTED_SCHEMES"
	echoTokenEnvVar         = "ECHO_TOKEN"
)

type BrowserConfig interface {
	GetCDPURL() string
	GetHeadless() bool
	GetTargetPatterns() []string
	GetStorageKey() string
	GetRestrictedSchemes() []string
	GetEchoToken() bool
}

type Browser struct{}

var _ BrowserConfig = Browser{}

// GetCDPURL is the remote debugging URL of a running browser. Empty means a
// local browser is launched.
func (Browser) GetCDPURL() string {
	return GetEnv(cdpURLEnvVar, "")
}

func (Browser) GetHeadless() bool {
	return GetEnvBool(headlessEnvVar, false)
}

func (Browser) GetTargetPatterns() []string {
	return GetEnvList(targetPatternsEnvVar, []string{"http://localhost:8080/*", "http://[::1]:8080/*"})
}

func (Browser) GetStorageKey() string {
	return GetEnv(storageKeyEnvVar, "token")
}

func (Browser) GetRestrictedSchemes() []string {
	return GetEnvList(restrictedSchemesEnvVar, []string{"chrome://", "devtools://", "chrome-extension://", "edge://"})
}

// GetEchoToken reports whether a successful injection returns the full token.
func (Browser) GetEchoToken() bool {
	return GetEnvBool(echoTokenEnvVar, false)
}
