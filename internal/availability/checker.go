// Package availability answers free/busy questions against the user's
// default calendar.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/logger"
)

// Layouts of the query parameters
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Gateway lists events from the remote calendar
type Gateway interface {
	ListEvents(ctx context.Context, userID, calendarID string, window domain.TimeWindow) ([]domain.RemoteEvent, error)
}

// IntegrationSource resolves a user's active integration
type IntegrationSource interface {
	GetActive(ctx context.Context, userID string) (*domain.Integration, error)
}

// Checker answers availability queries
type Checker struct {
	gateway      Gateway
	integrations IntegrationSource
	loc          *time.Location
}

// NewChecker creates a Checker that reads wall-clock times in loc
func NewChecker(gateway Gateway, integrations IntegrationSource, loc *time.Location) *Checker {
	if loc == nil {
		loc = time.UTC
	}
	return &Checker{gateway: gateway, integrations: integrations, loc: loc}
}

// Check reports whether [startTime, endTime) on date is free. The whole day
// is listed once so suggestions need no further remote calls.
func (c *Checker) Check(ctx context.Context, userID, date, startTime, endTime string) (*domain.Availability, error) {
	day, err := time.ParseInLocation(DateLayout, date, c.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}
	window, err := c.window(day, startTime, endTime)
	if err != nil {
		return nil, err
	}

	integration, err := c.integrations.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	dayWindow := domain.TimeWindow{Start: day, End: day.AddDate(0, 0, 1)}
	events, err := c.gateway.ListEvents(ctx, userID, integration.CalendarID(), dayWindow)
	if err != nil {
		return nil, err
	}

	conflicts := Conflicts(window, events, c.loc)
	result := &domain.Availability{Available: len(conflicts) == 0}
	if !result.Available {
		result.Conflicts = conflicts
		result.SuggestedTimes = Suggest(day, window.End.Sub(window.Start), events, c.loc)
	}

	logger.FromContext(ctx).Debug(LogMsgAvailabilityChecked,
		"user_id", userID, "events", len(events), "conflicts", len(conflicts))
	return result, nil
}

func (c *Checker) window(day time.Time, startTime, endTime string) (domain.TimeWindow, error) {
	start, err := clock(day, startTime, c.loc)
	if err != nil {
		return domain.TimeWindow{}, fmt.Errorf("%w: startTime must be HH:MM", domain.ErrInvalidInput)
	}
	end, err := clock(day, endTime, c.loc)
	if err != nil {
		return domain.TimeWindow{}, fmt.Errorf("%w: endTime must be HH:MM", domain.ErrInvalidInput)
	}
	if !end.After(start) {
		return domain.TimeWindow{}, fmt.Errorf("%w: endTime must be after startTime", domain.ErrInvalidInput)
	}
	return domain.TimeWindow{Start: start, End: end}, nil
}

// Conflicts returns the busy events overlapping window. Touching intervals
// do not overlap; cancelled and transparent events never conflict.
func Conflicts(window domain.TimeWindow, events []domain.RemoteEvent, loc *time.Location) []domain.Conflict {
	var out []domain.Conflict
	for i := range events {
		e := &events[i]
		if !e.BlocksTime() || !window.Overlaps(e.Start, e.End) {
			continue
		}
		out = append(out, domain.Conflict{
			Summary: e.Summary,
			Start:   e.Start.In(loc).Format(time.RFC3339),
			End:     e.End.In(loc).Format(time.RFC3339),
		})
	}
	return out
}

// Suggest returns up to MaxSuggestions free slots of length d on day, drawn
// from SuggestionSlots in order.
func Suggest(day time.Time, d time.Duration, events []domain.RemoteEvent, loc *time.Location) []string {
	var out []string
	for _, slot := range SuggestionSlots {
		start, err := clock(day, slot, loc)
		if err != nil {
			continue
		}
		if len(Conflicts(domain.TimeWindow{Start: start, End: start.Add(d)}, events, loc)) == 0 {
			out = append(out, slot)
			if len(out) == MaxSuggestions {
				break
			}
		}
	}
	return out
}

func clock(day time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	tod, err := time.Parse(TimeLayout, hhmm)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, tod.Hour(), tod.Minute(), 0, 0, loc), nil
}
