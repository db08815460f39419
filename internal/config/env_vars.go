package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	envEnvVar      = "ENV"
	portEnvVar     = "PORT"
	hostEnvVar     = "HOST"
	appNameVar     = "APP_NAME"
	folderEnvVar   = "FOLDER"
	logLevelEnvVar = "LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8787")
	if port != "" && port[0] != ':' {
		port = ":" + port
	}
	return port
}

// GetHost defaults to loopback: the relay handles credentials and must not be
// reachable from other machines unless explicitly configured.
func (EnvVars) GetHost() string {
	return GetEnv(hostEnvVar, "127.0.0.1")
}

func (e EnvVars) GetAddr() string {
	return e.GetHost() + e.GetPort()
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Token Relay")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelEnvVar, "info")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envEnvVar, "DEV")
}

// GetEnv returns the environment variable, then the config file value, then
// the default.
func GetEnv(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if value, ok := fileValue(envVar); ok && value != "" {
		return value
	}
	return defaultValue
}

func GetEnvBool(envVar string, defaultValue bool) bool {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warn().Str("var", envVar).Str("value", raw).Msg("Invalid boolean, using default")
		return defaultValue
	}
	return value
}

func GetEnvInt(envVar string, defaultValue int) int {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("var", envVar).Str("value", raw).Msg("Invalid integer, using default")
		return defaultValue
	}
	return value
}

func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn().Str("var", envVar).Str("value", raw).Msg("Invalid duration, using default")
		return defaultValue
	}
	return value
}

// GetEnvList splits a comma separated value, dropping empty items.
func GetEnvList(envVar string, defaultValue []string) []string {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
