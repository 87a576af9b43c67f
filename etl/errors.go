package etl

import (
	"errors"
	"fmt"
)

// Error taxonomy for the Intertek pipeline. Config errors fail fast and are
// never retried; auth/request/download errors may be retried by the
// orchestration task (not inside the client itself).

// ConfigError means the integration is disabled or misconfigured.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// AuthError means authentication with the lab portal failed (bad
// credentials, malformed login response, missing token, or a 401 that
// survived the single in-client refresh).
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// RequestError means an API request failed at the transport level or with a
// non-2xx, non-401 status.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api request failed with status %d: %s", e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("api request failed: %v", e.Err)
	}
	return "api request failed: " + e.Message
}

func (e *RequestError) Unwrap() error { return e.Err }

// DownloadError wraps the underlying request failure of an export download.
type DownloadError struct {
	Err error
}

func (e *DownloadError) Error() string { return fmt.Sprintf("report download failed: %v", e.Err) }

func (e *DownloadError) Unwrap() error { return e.Err }

// Retryable reports whether the orchestration task may retry after err.
// Configuration problems are terminal; everything in the auth/request/
// download family is worth another attempt.
func Retryable(err error) bool {
	var authErr *AuthError
	var reqErr *RequestError
	var dlErr *DownloadError
	return errors.As(err, &authErr) || errors.As(err, &reqErr) || errors.As(err, &dlErr)
}
