package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	Apply             time.Duration // budget for one resource apply, including retries
	WorkloadReady     time.Duration // readiness wait for a deployed workload
	HelmInstall       time.Duration // helm install/upgrade wait
	Diagnose          time.Duration // diagnostic snapshot capture, never retried
	Probe             time.Duration // one verify-stage probe
	PollInterval      time.Duration // readiness poll interval
	RetryMaxAttempts  int           // attempt budget for transient API failures
	RetryInitialDelay time.Duration // delay between retry attempts
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - DATADOCK_TIMEOUT_APPLY (default: 2m)
//   - DATADOCK_TIMEOUT_READY (default: 10m)
//   - DATADOCK_TIMEOUT_HELM (default: 10m)
//   - DATADOCK_TIMEOUT_DIAGNOSE (default: 15s)
//   - DATADOCK_TIMEOUT_PROBE (default: 10s)
//   - DATADOCK_POLL_INTERVAL (default: 5s)
//   - DATADOCK_RETRY_MAX_ATTEMPTS (default: 5)
//   - DATADOCK_RETRY_INITIAL_DELAY (default: 2s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Apply:             parseDuration("DATADOCK_TIMEOUT_APPLY", 2*time.Minute),
		WorkloadReady:     parseDuration("DATADOCK_TIMEOUT_READY", 10*time.Minute),
		HelmInstall:       parseDuration("DATADOCK_TIMEOUT_HELM", 10*time.Minute),
		Diagnose:          parseDuration("DATADOCK_TIMEOUT_DIAGNOSE", 15*time.Second),
		Probe:             parseDuration("DATADOCK_TIMEOUT_PROBE", 10*time.Second),
		PollInterval:      parseDuration("DATADOCK_POLL_INTERVAL", 5*time.Second),
		RetryMaxAttempts:  parseInt("DATADOCK_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("DATADOCK_RETRY_INITIAL_DELAY", 2*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
