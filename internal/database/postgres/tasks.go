package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/repository"
)

// TaskRepository implements repository.Tasks against the shared tasks table
type TaskRepository struct {
	db *pgxpool.Pool
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

// GetTask loads the scheduling fields of a task
func (r *TaskRepository) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	query := `
		SELECT id, user_id, text, due_date, completed, add_to_calendar,
		       COALESCE(event_time, ''), COALESCE(event_duration, 0), reminder_minutes,
		       recurrence_pattern, recurrence_count, recurrence_end_date, updated_at
		FROM tasks
		WHERE id = $1
	`
	var (
		t        domain.Task
		dueDate  pgtype.Date
		reminder pgtype.Int4
		pattern  pgtype.Text
		count    pgtype.Int4
		endDate  pgtype.Date
	)
	err := r.db.QueryRow(ctx, query, taskID).Scan(
		&t.ID,
		&t.UserID,
		&t.Text,
		&dueDate,
		&t.Completed,
		&t.AddToCalendar,
		&t.EventTime,
		&t.DurationMinutes,
		&reminder,
		&pattern,
		&count,
		&endDate,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetTask, err)
	}
	t.DueDate = ptrDate(dueDate)
	t.ReminderMinutes = ptrInt(reminder)
	t.Recurrence = recurrenceFromColumns(pattern, count, endDate)
	return &t, nil
}

// ApplyRemoteChange writes calendar-originated fields; nil fields keep their value
func (r *TaskRepository) ApplyRemoteChange(ctx context.Context, change repository.TaskChange) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer SafeRollback(ctx, tx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT TRUE FROM tasks WHERE id = $1 FOR UPDATE`, change.TaskID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("%s: %w", ErrMsgFailedToApplyTaskChange, err)
	}

	var eventTime pgtype.Text
	if change.EventTime != nil {
		eventTime = pgtype.Text{String: *change.EventTime, Valid: true}
	}
	var text pgtype.Text
	if change.Text != nil {
		text = pgtype.Text{String: *change.Text, Valid: true}
	}
	var completed pgtype.Bool
	if change.Completed != nil {
		completed = pgtype.Bool{Bool: *change.Completed, Valid: true}
	}

	query := `
		UPDATE tasks SET
			text = COALESCE($2, text),
			due_date = COALESCE($3, due_date),
			event_time = COALESCE($4, event_time),
			completed = COALESCE($5, completed),
			event_duration = COALESCE($6, event_duration),
			updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, query, change.TaskID, text, timeToDate(change.DueDate), eventTime, completed, intToInt4(change.DurationMinutes)); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToApplyTaskChange, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToCommit, err)
	}
	return nil
}
