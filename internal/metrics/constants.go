package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Calendar metric names
const (
	MetricNameCalendarCalls         = "calendar_calls_total"
	MetricNameCalendarCallDuration  = "calendar_call_duration_seconds"
	MetricNameCalendarRetries       = "calendar_retries_total"
	MetricNameTokenRefreshes        = "calendar_token_refreshes_total"
	MetricNameTokenCacheLookups     = "calendar_token_cache_lookups_total"
	MetricNameMirrorResults         = "calendar_mirror_results_total"
	MetricNameWebhookNotifications  = "calendar_webhook_notifications_total"
	MetricNameWebhookRenewals       = "calendar_webhook_renewals_total"
	MetricNameTrackedCalendarEvents = "calendar_tracked_events_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Calendar metric help text
const (
	HelpTextCalendarCalls         = "Remote calendar calls by operation and outcome"
	HelpTextCalendarCallDuration  = "Remote calendar call latency in seconds, including retries"
	HelpTextCalendarRetries       = "Remote calendar call retries by operation"
	HelpTextTokenRefreshes        = "Access token refreshes by outcome"
	HelpTextTokenCacheLookups     = "Client handle cache lookups by result"
	HelpTextMirrorResults         = "Task mirror operations by status"
	HelpTextWebhookNotifications  = "Webhook notifications by resource state and outcome"
	HelpTextWebhookRenewals       = "Webhook channel renewals by outcome"
	HelpTextTrackedCalendarEvents = "Calendar tracking events by type and operation"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelType      = "type"
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
	LabelResult    = "result"
	LabelState     = "state"
)

// Outcome label values
const (
	OutcomeSuccess      = "success"
	OutcomeTransient    = "transient"
	OutcomeRejected     = "rejected"
	OutcomeNotFound     = "not_found"
	OutcomeUnauthorized = "unauthorized"
	OutcomeReauth       = "reauth_required"
	OutcomeCanceled     = "canceled"
	OutcomeIgnored      = "ignored"
	OutcomePurged       = "purged"
	OutcomeFailed       = "failed"
)

// Cache lookup results
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// ============================================================================
// Event Payload Field Names
// ============================================================================

// Field names used when extracting values from map payloads
const (
	PayloadFieldOperation = "operation"
	PayloadFieldErrorCode = "error_code"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// CalendarLatencyBuckets covers a single call up to the full retry budget
var CalendarLatencyBuckets = []float64{.05, .1, .25, .5, 1, 2, 4, 8, 15}

// ============================================================================
// Log Messages
// ============================================================================

// Debug log messages
const (
	LogMsgEventPayloadUnknown = "Event payload is not a calendar payload"
	LogMsgMetricsRecorded     = "Metrics recorded for event"
)
