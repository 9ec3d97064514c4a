package provider

import (
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/osse101/calsync/internal/domain"
)

func toGoogleEvent(in domain.EventInput) *calendar.Event {
	ev := &calendar.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Start: &calendar.EventDateTime{
			DateTime: in.Start.Format(time.RFC3339),
			TimeZone: in.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: in.End.Format(time.RFC3339),
			TimeZone: in.TimeZone,
		},
		Recurrence: in.Recurrence,
	}

	if in.ReminderMinutes > 0 {
		ev.Reminders = &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: reminderMethod, Minutes: int64(in.ReminderMinutes)},
			},
			ForceSendFields: []string{"UseDefault"},
		}
	} else {
		ev.Reminders = &calendar.EventReminders{UseDefault: true}
	}
	return ev
}

func fromGoogleEvent(ev *calendar.Event, calendarID string) *domain.RemoteEvent {
	out := &domain.RemoteEvent{
		ID:           ev.Id,
		CalendarID:   calendarID,
		Summary:      ev.Summary,
		Description:  ev.Description,
		Status:       ev.Status,
		Transparency: ev.Transparency,
		Recurrence:   ev.Recurrence,
	}

	out.Start, out.AllDay = parseEventTime(ev.Start)
	out.End, _ = parseEventTime(ev.End)

	if ev.Reminders != nil {
		for _, r := range ev.Reminders.Overrides {
			if r == nil {
				continue
			}
			minutes := int(r.Minutes)
			out.ReminderMinutes = &minutes
			break
		}
	}
	return out
}

// parseEventTime reads a timed dateTime or an all-day date.
// The second return value reports an all-day value.
func parseEventTime(t *calendar.EventDateTime) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err == nil {
			return parsed, false
		}
	}
	if t.Date != "" {
		loc := time.UTC
		if t.TimeZone != "" {
			if l, err := time.LoadLocation(t.TimeZone); err == nil {
				loc = l
			}
		}
		parsed, err := time.ParseInLocation(dateLayout, t.Date, loc)
		if err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func fromCalendarListEntry(e *calendar.CalendarListEntry) domain.RemoteCalendar {
	return domain.RemoteCalendar{
		ID:         e.Id,
		Summary:    e.Summary,
		Primary:    e.Primary,
		AccessRole: e.AccessRole,
		TimeZone:   e.TimeZone,
	}
}
