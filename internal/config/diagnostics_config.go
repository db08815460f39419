package config

import "time"

const (
	diagCapacityEnvVar   = "DIAG_CAPACITY"
	diagPersistEnvVar    = "DIAG_PERSIST"
	requestTimeoutEnvVar = "REQUEST_TIMEOUT"
)

type DiagnosticsConfig interface {
	GetDiagCapacity() int
	GetDiagPersist() bool
}

type Diagnostics struct{}

var _ DiagnosticsConfig = Diagnostics{}

const maxDiagCapacity = 50

// GetDiagCapacity is at most 50 entries.
func (Diagnostics) GetDiagCapacity() int {
	capacity := GetEnvInt(diagCapacityEnvVar, maxDiagCapacity)
	if capacity <= 0 || capacity > maxDiagCapacity {
		return maxDiagCapacity
	}
	return capacity
}

func (Diagnostics) GetDiagPersist() bool {
	return GetEnvBool(diagPersistEnvVar, false)
}

type RelayConfig interface {
	GetRequestTimeout() time.Duration
}

type Relay struct{}

var _ RelayConfig = Relay{}

// GetRequestTimeout is zero (no deadline) unless configured.
func (Relay) GetRequestTimeout() time.Duration {
	return GetEnvDuration(requestTimeoutEnvVar, 0)
}
