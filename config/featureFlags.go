package config

import (
	"os"
	"strings"
)

// IntertekAPIEnabled gates the external lab-portal integration.
//
// Set via env:
// - INTERTEK_API_ENABLED=true
func IntertekAPIEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("INTERTEK_API_ENABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// IntertekCredentials returns the portal login credentials from env.
// Both values are required when the integration is enabled.
func IntertekCredentials() (username string, password string) {
	return strings.TrimSpace(os.Getenv("INTERTEK_API_USERNAME")),
		strings.TrimSpace(os.Getenv("INTERTEK_API_PASSWORD"))
}

// IngestRunLockEnabled controls whether overlapping ingestion runs are
// mutually excluded via the redis lock. Requires redis to be connected.
//
// Set via env:
// - ETL_RUN_LOCK=false (default true)
func IngestRunLockEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("ETL_RUN_LOCK")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
