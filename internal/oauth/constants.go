package oauth

// Scopes requested on the consent screen
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/calendar.events",
}

// Consent screen parameters. Forcing consent makes the provider issue a refresh token.
const (
	ParamPrompt   = "prompt"
	PromptConsent = "consent"
)

// Operation names for tracked events
const (
	OpConnect    = "connect"
	OpDisconnect = "disconnect"
)

// Log messages
const (
	LogMsgConnected           = "Calendar connected"
	LogMsgDisconnected        = "Calendar disconnected"
	LogMsgExchangeFailed      = "OAuth code exchange failed"
	LogMsgSubscribeFailed     = "Failed to subscribe webhook channel"
	LogMsgUnsubscribeFailed   = "Failed to stop webhook channels"
	LogMsgListCalendarsFailed = "Failed to list calendars"
	LogMsgPublishFailed       = "Failed to publish calendar event"
)
