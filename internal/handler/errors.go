package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details.
// Both handlers and tests should reference these constants to maintain consistency.
const (
	// HTTP status messages
	ErrMsgMethodNotAllowed      = "Method not allowed"
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"

	// Query parameter error messages
	ErrMsgMissingQueryParam = "Missing %s query parameter"

	// Identity
	ErrMsgMissingUserID = "Missing user identity"

	// Integration error messages
	ErrMsgAuthURLFailed        = "Failed to initiate Google Calendar authentication"
	ErrMsgCompleteAuthFailed   = "Failed to complete Google Calendar authentication"
	ErrMsgStatusFailed         = "Failed to get integration status"
	ErrMsgDefaultRequired      = "Default calendar ID is required"
	ErrMsgSetDefaultFailed     = "Failed to update integration settings"
	ErrMsgDisconnectFailed     = "Failed to disconnect integration"
	ErrMsgAvailabilityFailed   = "Failed to check availability"
	ErrMsgMirrorFailed         = "Failed to sync task with calendar"
	ErrMsgNotificationRejected = "Malformed notification"
)

// Callback redirect parameters
const (
	CallbackErrorMissingParams = "missing_params"
	CallbackIntegrationName    = "google_calendar"
	SettingsPath               = "/settings"
)

// Log messages
const (
	LogMsgDecodeFailed       = "Failed to decode %s request"
	LogMsgRequestDecoded     = "%s request decoded"
	LogMsgServiceFailed      = "%s failed"
	LogMsgNotificationQueued = "Webhook notification queued"
	LogMsgNotificationInline = "Worker queue full, processing webhook notification inline"
	LogMsgNotificationFailed = "Webhook notification processing failed"
)

// Action names used in logs
const (
	ActionCompleteAuth = "Complete auth"
	ActionSetDefault   = "Set default calendar"
	ActionMirrorTask   = "Mirror task"
	ActionUnmirrorTask = "Unmirror task"
	ActionStatus       = "Integration status"
	ActionDisconnect   = "Disconnect"
	ActionAvailability = "Availability"
	ActionAuthURL      = "Auth URL"
	ActionNotification = "Webhook notification"
)
