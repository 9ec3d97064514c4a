package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/osse101/calsync/internal/domain"
)

const (
	channelTypeWebHook = "web_hook"
	reminderMethod     = "popup"
	dateLayout         = "2006-01-02"
)

// GoogleFactory creates Google Calendar clients
type GoogleFactory struct {
	opts []option.ClientOption
}

// NewGoogleFactory creates a factory. Extra options are appended to every
// service, which lets tests point the client at a local endpoint.
func NewGoogleFactory(opts ...option.ClientOption) *GoogleFactory {
	return &GoogleFactory{opts: opts}
}

// NewClient wraps token in a static source. Refreshing is the token
// manager's job, so the HTTP client never refreshes on its own.
func (f *GoogleFactory) NewClient(ctx context.Context, token *oauth2.Token) (Client, error) {
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access token", domain.ErrInvalidInput)
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, f.opts...)

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &googleClient{svc: svc}, nil
}

type googleClient struct {
	svc *calendar.Service
}

func (c *googleClient) InsertEvent(ctx context.Context, calendarID string, in domain.EventInput) (*domain.RemoteEvent, error) {
	ev, err := c.svc.Events.Insert(calendarID, toGoogleEvent(in)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromGoogleEvent(ev, calendarID), nil
}

func (c *googleClient) UpdateEvent(ctx context.Context, calendarID, eventID string, in domain.EventInput) (*domain.RemoteEvent, error) {
	ev, err := c.svc.Events.Update(calendarID, eventID, toGoogleEvent(in)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromGoogleEvent(ev, calendarID), nil
}

func (c *googleClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	return c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
}

func (c *googleClient) GetEvent(ctx context.Context, calendarID, eventID string) (*domain.RemoteEvent, error) {
	ev, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromGoogleEvent(ev, calendarID), nil
}

func (c *googleClient) ListEvents(ctx context.Context, calendarID string, window domain.TimeWindow) ([]domain.RemoteEvent, error) {
	var events []domain.RemoteEvent
	err := c.svc.Events.List(calendarID).
		TimeMin(window.Start.Format(time.RFC3339)).
		TimeMax(window.End.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Pages(ctx, func(page *calendar.Events) error {
			for _, item := range page.Items {
				events = append(events, *fromGoogleEvent(item, calendarID))
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (c *googleClient) Watch(ctx context.Context, calendarID string, req domain.WatchRequest) (*domain.WatchResult, error) {
	ch := &calendar.Channel{
		Id:      req.ChannelID,
		Type:    channelTypeWebHook,
		Address: req.Address,
		Token:   req.Token,
	}
	if req.TTL > 0 {
		ch.Params = map[string]string{"ttl": fmt.Sprintf("%d", int64(req.TTL/time.Second))}
	}

	resp, err := c.svc.Events.Watch(calendarID, ch).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	result := &domain.WatchResult{ChannelID: resp.Id, ResourceID: resp.ResourceId}
	if resp.Expiration > 0 {
		result.Expiration = time.UnixMilli(resp.Expiration).UTC()
	} else {
		result.Expiration = time.Now().Add(req.TTL).UTC()
	}
	return result, nil
}

func (c *googleClient) StopChannel(ctx context.Context, channelID, resourceID string) error {
	return c.svc.Channels.Stop(&calendar.Channel{Id: channelID, ResourceId: resourceID}).Context(ctx).Do()
}

func (c *googleClient) ListCalendars(ctx context.Context) ([]domain.RemoteCalendar, error) {
	calendars := []domain.RemoteCalendar{}
	err := c.svc.CalendarList.List().Pages(ctx, func(page *calendar.CalendarList) error {
		for _, item := range page.Items {
			calendars = append(calendars, fromCalendarListEntry(item))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return calendars, nil
}

func (c *googleClient) GetCalendar(ctx context.Context, calendarID string) (*domain.RemoteCalendar, error) {
	entry, err := c.svc.CalendarList.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	cal := fromCalendarListEntry(entry)
	return &cal, nil
}
