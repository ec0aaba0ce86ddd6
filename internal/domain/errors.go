package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthorized means the bearer credential was missing or did not verify.
var ErrUnauthorized = errors.New("unauthorized")

// InvalidRequestError is a client error; Reason is safe to show to the caller.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return e.Reason
}

func InvalidRequest(format string, args ...any) error {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failure of the completion or identity provider.
// StatusCode is the provider's HTTP status when it sent one.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Detail     string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s upstream error (status %d): %s", e.Provider, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s upstream error: %s", e.Provider, e.Detail)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// PersistenceError is a History Store failure. On the chat path it is only logged.
type PersistenceError struct {
	Op  string // "set", "scan", "delete"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ConfigurationError means a required provider setting is absent.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is not configured", e.Setting)
}

// MalformedRecordError is returned for stored records that fail validation.
type MalformedRecordError struct {
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed session record: %s: %v", e.Reason, e.Err)
	}
	return "malformed session record: " + e.Reason
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
