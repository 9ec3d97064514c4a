package domain

// Event type constants for calendar tracking events published on the event bus.
//
// Event types follow the pattern: <entity>.<action> (e.g., "calendar.event.created")
const (
	EventTypeCalendarConnected    = "calendar.connected"
	EventTypeCalendarDisconnected = "calendar.disconnected"

	EventTypeCalendarEventCreated = "calendar.event.created"
	EventTypeCalendarEventUpdated = "calendar.event.updated"
	EventTypeCalendarEventDeleted = "calendar.event.deleted"
	// EventTypeCalendarEventSynced is published when a remote change is applied to a task
	EventTypeCalendarEventSynced = "calendar.event.synced"

	EventTypeCalendarWebhookCreated = "calendar.webhook.created"
	EventTypeCalendarWebhookDeleted = "calendar.webhook.deleted"

	EventTypeCalendarError = "calendar.error"
)

// CalendarEventPayload is the payload for all calendar tracking events.
// It never carries event summaries, descriptions or tokens.
type CalendarEventPayload struct {
	UserID     string `json:"user_id"`
	TaskID     string `json:"task_id,omitempty"`
	EventID    string `json:"event_id,omitempty"`
	CalendarID string `json:"calendar_id,omitempty"`
	ChannelID  string `json:"channel_id,omitempty"`
	Operation  string `json:"operation,omitempty"`
	ErrorCode  string `json:"error_code,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}
