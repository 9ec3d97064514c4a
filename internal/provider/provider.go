// Package provider binds the provider-neutral calendar operations to the
// Google Calendar API.
package provider

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/osse101/calsync/internal/domain"
)

// Client is a live handle to one user's remote calendar account.
// Implementations return raw provider errors; classification happens in the gateway.
type Client interface {
	InsertEvent(ctx context.Context, calendarID string, in domain.EventInput) (*domain.RemoteEvent, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, in domain.EventInput) (*domain.RemoteEvent, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	GetEvent(ctx context.Context, calendarID, eventID string) (*domain.RemoteEvent, error)
	// ListEvents expands recurring events into instances within window.
	ListEvents(ctx context.Context, calendarID string, window domain.TimeWindow) ([]domain.RemoteEvent, error)
	Watch(ctx context.Context, calendarID string, req domain.WatchRequest) (*domain.WatchResult, error)
	StopChannel(ctx context.Context, channelID, resourceID string) error
	ListCalendars(ctx context.Context) ([]domain.RemoteCalendar, error)
	GetCalendar(ctx context.Context, calendarID string) (*domain.RemoteCalendar, error)
}

// Factory builds a Client around an access token
type Factory interface {
	NewClient(ctx context.Context, token *oauth2.Token) (Client, error)
}
