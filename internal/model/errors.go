package model

import (
	"errors"
	"fmt"
)

// ConversionError reports a PDF that could not be turned into page images:
// bad bytes, an unreadable document, or no rendering backend on the host.
type ConversionError struct {
	Reason string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conversion: %s: %v", e.Reason, e.Err)
	}
	return "conversion: " + e.Reason
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a missing or invalid mode selector or credential.
type ConfigurationError struct {
	Field  string // e.g. "mode", "ai.api_key"
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// AuthenticationError means the remote service rejected the credential.
type AuthenticationError struct {
	Provider string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s rejected the API key: %v", e.Provider, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ServiceError wraps a failed, timed-out or non-success remote call.
type ServiceError struct {
	Provider   string
	StatusCode int // zero when no HTTP response was received
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned HTTP %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s call failed: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// EmptyResponseError means the remote call succeeded but produced no text.
type EmptyResponseError struct {
	Provider string
}

func (e *EmptyResponseError) Error() string {
	return e.Provider + " returned an empty response"
}

// UserMessage converts err into the plain sentence shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var convErr *ConversionError
	var cfgErr *ConfigurationError
	var authErr *AuthenticationError
	var svcErr *ServiceError
	var emptyErr *EmptyResponseError

	switch {
	case errors.As(err, &convErr):
		return fmt.Sprintf("Error processing PDF: %s.", convErr.Reason)
	case errors.As(err, &cfgErr):
		return fmt.Sprintf("Configuration problem (%s): %s.", cfgErr.Field, cfgErr.Reason)
	case errors.As(err, &authErr):
		return "The AI service rejected the API key. Check the key in your .env file or config."
	case errors.As(err, &svcErr):
		return fmt.Sprintf("An error occurred while calling the AI service: %v", svcErr.Err)
	case errors.As(err, &emptyErr):
		return "The AI service returned no text. Try again or pick another analysis."
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}
