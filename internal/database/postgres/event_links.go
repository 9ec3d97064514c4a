package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/calsync/internal/domain"
)

// EventLinkRepository implements repository.EventLinks
type EventLinkRepository struct {
	db *pgxpool.Pool
}

// NewEventLinkRepository creates a new event link repository
func NewEventLinkRepository(db *pgxpool.Pool) *EventLinkRepository {
	return &EventLinkRepository{db: db}
}

const eventLinkColumns = `
	id::text, task_id, user_id, calendar_id, calendar_event_id, scheduled_at,
	event_time, duration_minutes, reminder_minutes,
	recurrence_pattern, recurrence_count, recurrence_end_date,
	sync_hash, created_at, updated_at`

func scanEventLink(row pgx.Row) (*domain.EventLink, error) {
	var (
		l       domain.EventLink
		pattern pgtype.Text
		count   pgtype.Int4
		endDate pgtype.Date
	)
	err := row.Scan(
		&l.ID,
		&l.TaskID,
		&l.UserID,
		&l.CalendarID,
		&l.EventID,
		&l.ScheduledAt,
		&l.EventTime,
		&l.DurationMinutes,
		&l.ReminderMinutes,
		&pattern,
		&count,
		&endDate,
		&l.SyncHash,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Recurrence = recurrenceFromColumns(pattern, count, endDate)
	return &l, nil
}

// GetByTaskID returns the link for a task
func (r *EventLinkRepository) GetByTaskID(ctx context.Context, taskID string) (*domain.EventLink, error) {
	query := `SELECT ` + eventLinkColumns + ` FROM task_calendar_events WHERE task_id = $1`

	l, err := scanEventLink(r.db.QueryRow(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventLinkNotFound
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetEventLink, err)
	}
	return l, nil
}

// GetByEventID returns the user's link whose remote event id matches
func (r *EventLinkRepository) GetByEventID(ctx context.Context, userID, eventID string) (*domain.EventLink, error) {
	query := `SELECT ` + eventLinkColumns + `
		FROM task_calendar_events
		WHERE calendar_event_id = $1 AND user_id = $2
		ORDER BY updated_at DESC
		LIMIT 1`

	l, err := scanEventLink(r.db.QueryRow(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventLinkNotFound
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetEventLink, err)
	}
	return l, nil
}

// Upsert creates or replaces the single link for link.TaskID
func (r *EventLinkRepository) Upsert(ctx context.Context, link *domain.EventLink) error {
	pattern, count, endDate := recurrenceColumns(link.Recurrence)
	query := `
		INSERT INTO task_calendar_events
			(task_id, user_id, calendar_id, calendar_event_id, scheduled_at, event_time,
			 duration_minutes, reminder_minutes, recurrence_pattern, recurrence_count,
			 recurrence_end_date, sync_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (task_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			calendar_id = EXCLUDED.calendar_id,
			calendar_event_id = EXCLUDED.calendar_event_id,
			scheduled_at = EXCLUDED.scheduled_at,
			event_time = EXCLUDED.event_time,
			duration_minutes = EXCLUDED.duration_minutes,
			reminder_minutes = EXCLUDED.reminder_minutes,
			recurrence_pattern = EXCLUDED.recurrence_pattern,
			recurrence_count = EXCLUDED.recurrence_count,
			recurrence_end_date = EXCLUDED.recurrence_end_date,
			sync_hash = EXCLUDED.sync_hash,
			updated_at = NOW()
		RETURNING id::text, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		link.TaskID,
		link.UserID,
		link.CalendarID,
		link.EventID,
		link.ScheduledAt,
		link.EventTime,
		link.DurationMinutes,
		link.ReminderMinutes,
		pattern,
		count,
		endDate,
		link.SyncHash,
	).Scan(&link.ID, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpsertEventLink, err)
	}
	return nil
}

// UpdateSyncHash records the fingerprint both sides agree on
func (r *EventLinkRepository) UpdateSyncHash(ctx context.Context, taskID, hash string) error {
	query := `
		UPDATE task_calendar_events
		SET sync_hash = $2, updated_at = NOW()
		WHERE task_id = $1
	`
	tag, err := r.db.Exec(ctx, query, taskID, hash)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateSyncHash, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventLinkNotFound
	}
	return nil
}

// DeleteByTaskID removes the link and reports whether one existed
func (r *EventLinkRepository) DeleteByTaskID(ctx context.Context, taskID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM task_calendar_events WHERE task_id = $1`, taskID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", ErrMsgFailedToDeleteEventLink, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByCalendar returns every link a user has on one calendar
func (r *EventLinkRepository) ListByCalendar(ctx context.Context, userID, calendarID string) ([]domain.EventLink, error) {
	query := `SELECT ` + eventLinkColumns + `
		FROM task_calendar_events
		WHERE user_id = $1 AND calendar_id = $2
		ORDER BY scheduled_at`

	rows, err := r.db.Query(ctx, query, userID, calendarID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListEventLinks, err)
	}
	defer rows.Close()

	links := []domain.EventLink{}
	for rows.Next() {
		l, err := scanEventLink(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListEventLinks, err)
		}
		links = append(links, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListEventLinks, err)
	}
	return links, nil
}
