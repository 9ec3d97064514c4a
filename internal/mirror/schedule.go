package mirror

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/osse101/calsync/internal/domain"
)

// Schedule is the concrete placement of a mirrored task on the calendar
type Schedule struct {
	Start           time.Time
	End             time.Time
	EventTime       string
	DurationMinutes int
	ReminderMinutes int
	Recurrence      *domain.Recurrence
	// Rule is the RRULE line, empty for one-off events.
	Rule string
}

// ComputeSchedule places task on the calendar in loc, filling the
// time-of-day, duration and reminder defaults.
func ComputeSchedule(task *domain.Task, loc *time.Location) (Schedule, error) {
	if task.DueDate == nil {
		return Schedule{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgNoDueDate)
	}
	if loc == nil {
		loc = time.UTC
	}

	eventTime := task.EventTime
	if eventTime == "" {
		eventTime = domain.DefaultEventTime
	}
	tod, err := time.Parse(TimeOfDayLayout, eventTime)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: %s %q", domain.ErrInvalidInput, ErrMsgInvalidEventTime, eventTime)
	}

	duration := task.DurationMinutes
	if duration <= 0 {
		duration = domain.DefaultDurationMinutes
	}
	reminder := domain.DefaultReminderMinutes
	if task.ReminderMinutes != nil && *task.ReminderMinutes >= 0 {
		reminder = *task.ReminderMinutes
	}

	rule, err := BuildRecurrenceRule(task.Recurrence)
	if err != nil {
		return Schedule{}, err
	}

	// The due date is a calendar date; read its fields in UTC, not loc.
	y, m, d := task.DueDate.UTC().Date()
	start := time.Date(y, m, d, tod.Hour(), tod.Minute(), 0, 0, loc)

	return Schedule{
		Start:           start,
		End:             start.Add(time.Duration(duration) * time.Minute),
		EventTime:       start.Format(TimeOfDayLayout),
		DurationMinutes: duration,
		ReminderMinutes: reminder,
		Recurrence:      task.Recurrence,
		Rule:            rule,
	}, nil
}

// BuildRecurrenceRule renders r as an RRULE line. COUNT wins over UNTIL
// when both are set. A nil or pattern-less recurrence yields "".
func BuildRecurrenceRule(r *domain.Recurrence) (string, error) {
	if r == nil || r.Pattern == "" {
		return "", nil
	}

	freq := strings.ToUpper(r.Pattern)
	switch freq {
	case "DAILY", "WEEKLY", "MONTHLY", "YEARLY":
	default:
		return "", fmt.Errorf("%w: %s %q", domain.ErrInvalidInput, ErrMsgInvalidPattern, r.Pattern)
	}

	var sb strings.Builder
	sb.WriteString("RRULE:FREQ=")
	sb.WriteString(freq)

	switch {
	case r.Count != nil:
		if *r.Count < 1 {
			return "", fmt.Errorf("%w: %s", domain.ErrInvalidInput, ErrMsgInvalidCount)
		}
		fmt.Fprintf(&sb, ";COUNT=%d", *r.Count)
	case r.EndDate != nil:
		sb.WriteString(";UNTIL=")
		sb.WriteString(r.EndDate.UTC().Format("20060102"))
		sb.WriteString("T235959Z")
	}
	return sb.String(), nil
}

// Fingerprint identifies the mirrored content of an event. Both directions
// compare against the stored link hash to drop their own echoes.
func Fingerprint(summary string, start, end time.Time) string {
	h := sha256.New()
	h.Write([]byte(summary))
	h.Write([]byte{0})
	h.Write([]byte(start.UTC().Format(time.RFC3339)))
	h.Write([]byte{0})
	h.Write([]byte(end.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(h.Sum(nil))
}

func sameRecurrence(a, b *domain.Recurrence) bool {
	ra, errA := BuildRecurrenceRule(a)
	rb, errB := BuildRecurrenceRule(b)
	return errA == nil && errB == nil && ra == rb
}
