package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/osse101/calsync/internal/event"
	"github.com/osse101/calsync/internal/metrics"
)

// RegisterEventHandlers attaches the subscribers that observe calendar events
func RegisterEventHandlers(bus event.Bus) error {
	collector := metrics.NewEventMetricsCollector()
	if err := collector.Register(bus); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedRegisterMetrics, err)
	}
	slog.Info(LogMsgMetricsCollectorRegistered, "event_types", len(event.CalendarTypes))
	return nil
}
