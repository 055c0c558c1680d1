package ai

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies an [Error] into the closed set of failure modes the
// client distinguishes. Callers branch on the kind rather than on error
// strings.
type ErrorKind string

const (
	ErrorKindRateLimited    ErrorKind = "rate_limited"    // HTTP 429
	ErrorKindUnauthorized   ErrorKind = "unauthorized"    // HTTP 401
	ErrorKindServer         ErrorKind = "server"          // HTTP 5xx
	ErrorKindAPI            ErrorKind = "api"             // Other non-2xx status
	ErrorKindTimeout        ErrorKind = "timeout"         // Handshake or read timeout
	ErrorKindParse          ErrorKind = "parse"           // Malformed JSON or SSE payload
	ErrorKindInvalidModel   ErrorKind = "invalid_model"   // Identifier not provider/model shaped
	ErrorKindMissingAPIKey  ErrorKind = "missing_api_key" // No key registered for the provider
	ErrorKindTransport      ErrorKind = "transport"       // Network failure other than a timeout
	ErrorKindStreamConsumed ErrorKind = "stream_consumed" // Stream finalized twice
	ErrorKindConfig         ErrorKind = "config"          // Bad builder or request input
)

// Error is the single error type returned by this module for request
// failures. Infrastructure errors (a failed dial, a JSON decode) are wrapped
// as the cause and reachable through [Error.Unwrap].
type Error struct {
	Kind    ErrorKind
	Status  int    // HTTP status for server and api kinds
	Message string // Detail for api, parse, invalid_model, missing_api_key, config kinds

	// RetryAfter is the wait suggested by a 429 Retry-After header;
	// zero when the provider sent none.
	RetryAfter time.Duration

	cause error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrorKindRateLimited:
		return "rate limited"
	case ErrorKindUnauthorized:
		return "unauthorized"
	case ErrorKindServer:
		return fmt.Sprintf("server error (%d)", e.Status)
	case ErrorKindAPI:
		if e.Message != "" {
			return e.Message
		}
		return fmt.Sprintf("api error (%d)", e.Status)
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindParse:
		return "parse: " + e.Message
	case ErrorKindInvalidModel:
		return "invalid model: " + e.Message
	case ErrorKindMissingAPIKey:
		return "missing API key for " + e.Message
	case ErrorKindTransport:
		if e.cause != nil {
			return "transport: " + e.cause.Error()
		}
		return "transport: " + e.Message
	case ErrorKindStreamConsumed:
		return "stream already finalized"
	case ErrorKindConfig:
		return "config: " + e.Message
	default:
		return string(e.Kind) + ": " + e.Message
	}
}

// Unwrap exposes the wrapped cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether retrying the request could plausibly succeed.
// Only rate limits, server-side 5xx failures, and timeouts qualify; every
// other kind is deterministic and would fail again.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case ErrorKindRateLimited, ErrorKindServer, ErrorKindTimeout:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err is a retryable [Error]. Non-Error values,
// including nil, are never retryable.
func IsRetryable(err error) bool {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Retryable()
	}
	return false
}

// NewRateLimitedError creates a rate-limited error. retryAfter carries the
// provider's suggested wait (zero when the response had no Retry-After).
func NewRateLimitedError(retryAfter time.Duration) *Error {
	return &Error{Kind: ErrorKindRateLimited, Status: 429, RetryAfter: retryAfter}
}

// NewUnauthorizedError creates an error for a rejected API key.
func NewUnauthorizedError() *Error {
	return &Error{Kind: ErrorKindUnauthorized, Status: 401}
}

// NewServerError creates an error for an HTTP 5xx status.
func NewServerError(status int) *Error {
	return &Error{Kind: ErrorKindServer, Status: status}
}

// NewAPIError creates an error for a non-2xx status outside the dedicated
// kinds, carrying the provider's error message when one could be extracted.
func NewAPIError(status int, message string) *Error {
	return &Error{Kind: ErrorKindAPI, Status: status, Message: message}
}

// NewTimeoutError creates a timeout error wrapping the underlying network
// or context error.
func NewTimeoutError(cause error) *Error {
	return &Error{Kind: ErrorKindTimeout, cause: cause}
}

// NewParseError creates an error for a malformed provider payload.
func NewParseError(message string) *Error {
	return &Error{Kind: ErrorKindParse, Message: message}
}

// NewInvalidModelError creates an error for an identifier that is not in
// provider/model form or names an unknown provider.
func NewInvalidModelError(id string) *Error {
	return &Error{Kind: ErrorKindInvalidModel, Message: id}
}

// NewMissingAPIKeyError creates an error for a request whose resolved
// provider has no API key configured.
func NewMissingAPIKeyError(provider string) *Error {
	return &Error{Kind: ErrorKindMissingAPIKey, Message: provider}
}

// NewTransportError creates an error for a non-timeout network failure.
func NewTransportError(cause error) *Error {
	return &Error{Kind: ErrorKindTransport, cause: cause}
}

// NewStreamConsumedError creates the error returned when a stream is
// finalized a second time.
func NewStreamConsumedError() *Error {
	return &Error{Kind: ErrorKindStreamConsumed}
}

// NewConfigError creates an error for invalid builder or request input.
func NewConfigError(message string) *Error {
	return &Error{Kind: ErrorKindConfig, Message: message}
}
