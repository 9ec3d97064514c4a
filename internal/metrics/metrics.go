package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Calendar Metrics
var (
	CalendarCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCalendarCalls,
			Help: HelpTextCalendarCalls,
		},
		[]string{LabelOperation, LabelOutcome},
	)

	CalendarCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameCalendarCallDuration,
			Help:    HelpTextCalendarCallDuration,
			Buckets: CalendarLatencyBuckets,
		},
		[]string{LabelOperation},
	)

	CalendarRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCalendarRetries,
			Help: HelpTextCalendarRetries,
		},
		[]string{LabelOperation},
	)

	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTokenRefreshes,
			Help: HelpTextTokenRefreshes,
		},
		[]string{LabelOutcome},
	)

	TokenCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTokenCacheLookups,
			Help: HelpTextTokenCacheLookups,
		},
		[]string{LabelResult},
	)

	MirrorResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameMirrorResults,
			Help: HelpTextMirrorResults,
		},
		[]string{LabelStatus},
	)

	WebhookNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameWebhookNotifications,
			Help: HelpTextWebhookNotifications,
		},
		[]string{LabelState, LabelOutcome},
	)

	WebhookRenewals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameWebhookRenewals,
			Help: HelpTextWebhookRenewals,
		},
		[]string{LabelOutcome},
	)

	TrackedCalendarEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTrackedCalendarEvents,
			Help: HelpTextTrackedCalendarEvents,
		},
		[]string{LabelType, LabelOperation},
	)
)
