package calendar

import "time"

// Retry and timeout defaults
const (
	DefaultMaxRetries  = 3
	DefaultBaseDelay   = time.Second
	DefaultCallTimeout = 15 * time.Second
)

// Operation names used in logs and metrics
const (
	OpCreateEvent   = "create_event"
	OpUpdateEvent   = "update_event"
	OpDeleteEvent   = "delete_event"
	OpGetEvent      = "get_event"
	OpListEvents    = "list_events"
	OpWatch         = "watch"
	OpStopWatch     = "stop_watch"
	OpListCalendars = "list_calendars"
	OpGetCalendar   = "get_calendar"
)

// Log messages
const (
	LogMsgCallFailed      = "Calendar call failed"
	LogMsgCallRetrying    = "Calendar call failed, retrying"
	LogMsgForcingRefresh  = "Calendar call unauthorized, forcing token refresh"
	LogMsgRefreshAfter401 = "Token refresh after unauthorized response failed"
)
