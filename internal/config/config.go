package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

const configFileEnvVar = "RELAY_CONFIG_FILE"

type Config interface {
	EnvConfig
	CorsConfig
	AuthConfig
	BrowserConfig
	DiagnosticsConfig
	RelayConfig
}

type EnvConfig interface {
	GetPort() string
	GetHost() string
	GetAddr() string
	GetAppName() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Auth
	Browser
	Diagnostics
	Relay
}

// New returns a Config backed by environment variables and, when loaded, the
// values of a TOML config file.
func New() Config {
	return mainConfig{}
}

// Load reads the TOML file named by RELAY_CONFIG_FILE (or path, when given)
// and returns the resulting Config. Environment variables always win over file
// values.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(configFileEnvVar)
	}
	if path == "" {
		return New(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load read %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config.Load parse %s: %w", path, err)
	}
	setFileValues(fc.values())
	return New(), nil
}

// fileConfig mirrors the environment variables as TOML sections.
type fileConfig struct {
	Env    string `toml:"env"`
	Server struct {
		Port           int      `toml:"port"`
		Host           string   `toml:"host"`
		AppName        string   `toml:"app_name"`
		DataFolder     string   `toml:"data_folder"`
		LogLevel       string   `toml:"log_level"`
		AllowedOrigins []string `toml:"allowed_origins"`
	} `toml:"server"`
	Auth struct {
		Endpoint string `toml:"endpoint"`
		Origin   string `toml:"origin"`
		Mode     string `toml:"mode"`
		Next     string `toml:"next"`
	} `toml:"auth"`
	Browser struct {
		CDPURL            string   `toml:"cdp_url"`
		Headless          *bool    `toml:"headless"`
		TargetPatterns    []string `toml:"target_patterns"`
		StorageKey        string   `toml:"storage_key"`
		RestrictedSchemes []string `toml:"restricted_schemes"`
		EchoToken         *bool    `toml:"echo_token"`
	} `toml:"browser"`
	Diagnostics struct {
		Capacity int   `toml:"capacity"`
		Persist  *bool `toml:"persist"`
	} `toml:"diagnostics"`
	Relay struct {
		RequestTimeout string `toml:"request_timeout"`
	} `toml:"relay"`
}

func (fc fileConfig) values() map[string]string {
	v := make(map[string]string)
	put := func(key, value string) {
		if value != "" {
			v[key] = value
		}
	}
	putBool := func(key string, value *bool) {
		if value != nil {
			v[key] = strconv.FormatBool(*value)
		}
	}

	put(envEnvVar, fc.Env)
	if fc.Server.Port != 0 {
		v[portEnvVar] = strconv.Itoa(fc.Server.Port)
	}
	put(hostEnvVar, fc.Server.Host)
	put(appNameVar, fc.Server.AppName)
	put(folderEnvVar, fc.Server.DataFolder)
	put(logLevelEnvVar, fc.Server.LogLevel)
	put(allowedOriginsEnvVar, strings.Join(fc.Server.AllowedOrigins, ","))

	put(authEndpointEnvVar, fc.Auth.Endpoint)
	put(authOriginEnvVar, fc.Auth.Origin)
	put(authModeEnvVar, fc.Auth.Mode)
	put(authNextEnvVar, fc.Auth.Next)

	put(cdpURLEnvVar, fc.Browser.CDPURL)
	putBool(headlessEnvVar, fc.Browser.Headless)
	put(targetPatternsEnvVar, strings.Join(fc.Browser.TargetPatterns, ","))
	put(storageKeyEnvVar, fc.Browser.StorageKey)
	put(restrictedSchemesEnvVar, strings.Join(fc.Browser.RestrictedSchemes, ","))
	putBool(echoTokenEnvVar, fc.Browser.EchoToken)

	if fc.Diagnostics.Capacity != 0 {
		v[diagCapacityEnvVar] = strconv.Itoa(fc.Diagnostics.Capacity)
	}
	putBool(diagPersistEnvVar, fc.Diagnostics.Persist)

	put(requestTimeoutEnvVar, fc.Relay.RequestTimeout)
	return v
}

var (
	fileValues     map[string]string
	fileValuesLock sync.RWMutex
)

func setFileValues(values map[string]string) {
	fileValuesLock.Lock()
	defer fileValuesLock.Unlock()
	fileValues = values
}

func fileValue(key string) (string, bool) {
	fileValuesLock.RLock()
	defer fileValuesLock.RUnlock()
	v, ok := fileValues[key]
	return v, ok
}
