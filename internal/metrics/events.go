package metrics

import (
	"context"

	"github.com/osse101/calsync/internal/event"
	"github.com/osse101/calsync/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all calendar tracking events
func (e *EventMetricsCollector) Register(bus event.Bus) error {
	for _, eventType := range event.CalendarTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}
	return nil
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	payload, err := event.CalendarPayload(evt)
	if err != nil {
		log.Debug(LogMsgEventPayloadUnknown, "type", evt.Type, "error", err)
		EventHandlerErrors.WithLabelValues(string(evt.Type)).Inc()
		return nil
	}

	TrackedCalendarEvents.WithLabelValues(string(evt.Type), payload.Operation).Inc()

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
