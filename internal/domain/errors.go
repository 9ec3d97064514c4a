package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Integration errors
	ErrMsgIntegrationMissing = "calendar integration missing or inactive"
	ErrMsgReauthRequired     = "calendar re-authorization required"
	ErrMsgStateMismatch      = "oauth state does not match user"

	// Remote calendar errors
	ErrMsgRemoteTransient    = "remote calendar temporarily unavailable"
	ErrMsgRemoteRejected     = "remote calendar rejected request"
	ErrMsgRemoteUnauthorized = "remote calendar unauthorized"
	ErrMsgRemoteNotFound     = "remote calendar resource not found"

	// Webhook errors
	ErrMsgUnknownChannel      = "unknown notification channel"
	ErrMsgInvalidChannelToken = "invalid channel token"
	ErrMsgChannelNotFound     = "webhook channel not found"

	// Persistence errors
	ErrMsgEventLinkNotFound = "event link not found"
	ErrMsgTaskNotFound      = "task not found"

	// Encryption errors
	ErrMsgEncryptionNotConfigured = "encryption key not configured"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	ErrIntegrationMissing = errors.New(ErrMsgIntegrationMissing)
	ErrReauthRequired     = errors.New(ErrMsgReauthRequired)
	ErrStateMismatch      = errors.New(ErrMsgStateMismatch)

	// ErrRemoteTransient covers rate limits, 5xx and network failures. Retryable.
	ErrRemoteTransient = errors.New(ErrMsgRemoteTransient)
	// ErrRemoteRejected covers non-retryable 4xx responses.
	ErrRemoteRejected     = errors.New(ErrMsgRemoteRejected)
	ErrRemoteUnauthorized = errors.New(ErrMsgRemoteUnauthorized)
	// ErrRemoteNotFound is a rejection; errors.Is(err, ErrRemoteRejected) also holds.
	ErrRemoteNotFound error = &notFoundError{}

	ErrUnknownChannel      = errors.New(ErrMsgUnknownChannel)
	ErrInvalidChannelToken = errors.New(ErrMsgInvalidChannelToken)
	ErrChannelNotFound     = errors.New(ErrMsgChannelNotFound)

	ErrEventLinkNotFound = errors.New(ErrMsgEventLinkNotFound)
	ErrTaskNotFound      = errors.New(ErrMsgTaskNotFound)

	ErrEncryptionNotConfigured = errors.New(ErrMsgEncryptionNotConfigured)

	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)

type notFoundError struct{}

func (e *notFoundError) Error() string { return ErrMsgRemoteNotFound }

func (e *notFoundError) Unwrap() error { return ErrRemoteRejected }
