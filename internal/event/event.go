package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/calsync/internal/domain"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if e.Metadata == nil {
		return nil
	}
	if m, ok := e.Metadata.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

// Calendar tracking event types
const (
	CalendarConnected    Type = domain.EventTypeCalendarConnected
	CalendarDisconnected Type = domain.EventTypeCalendarDisconnected
	CalendarEventCreated Type = domain.EventTypeCalendarEventCreated
	CalendarEventUpdated Type = domain.EventTypeCalendarEventUpdated
	CalendarEventDeleted Type = domain.EventTypeCalendarEventDeleted
	CalendarEventSynced  Type = domain.EventTypeCalendarEventSynced
	CalendarWebhookUp    Type = domain.EventTypeCalendarWebhookCreated
	CalendarWebhookDown  Type = domain.EventTypeCalendarWebhookDeleted
	CalendarError        Type = domain.EventTypeCalendarError
)

// CalendarTypes lists every calendar tracking event type
var CalendarTypes = []Type{
	CalendarConnected,
	CalendarDisconnected,
	CalendarEventCreated,
	CalendarEventUpdated,
	CalendarEventDeleted,
	CalendarEventSynced,
	CalendarWebhookUp,
	CalendarWebhookDown,
	CalendarError,
}

// NewCalendarEvent creates a calendar tracking event. The timestamp is
// filled in when the payload leaves it zero.
func NewCalendarEvent(eventType Type, payload domain.CalendarEventPayload) Event {
	if payload.Timestamp == 0 {
		payload.Timestamp = time.Now().Unix()
	}
	return Event{
		Version: EventSchemaVersion,
		Type:    eventType,
		Payload: payload,
		Metadata: map[string]interface{}{
			"user_id": payload.UserID,
		},
	}
}

// NewCalendarErrorEvent records a failed calendar operation by error code only
func NewCalendarErrorEvent(userID, operation, errorCode string) Event {
	return NewCalendarEvent(CalendarError, domain.CalendarEventPayload{
		UserID:    userID,
		Operation: operation,
		ErrorCode: errorCode,
	})
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers synchronously
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// NopBus discards every event. Used by binaries that do not track events.
type NopBus struct{}

// Publish implements Bus
func (NopBus) Publish(context.Context, Event) error { return nil }

// Subscribe implements Bus
func (NopBus) Subscribe(Type, Handler) {}
