package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/logger"
)

// SafeRollback rolls back a transaction and logs any error that isn't ErrTxClosed
func SafeRollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.FromContext(ctx).Error("Failed to rollback transaction", "error", err)
	}
}

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == PgErrorCodeUniqueViolation
}

// ptrTime converts a pgtype.Timestamptz to *time.Time.
// Returns nil if the timestamp is not valid.
func ptrTime(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// ptrDate converts a pgtype.Date to *time.Time at UTC midnight.
func ptrDate(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	v := time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
	return &v
}

// ptrInt converts a pgtype.Int4 to *int.
// Returns nil if the int is not valid.
func ptrInt(i pgtype.Int4) *int {
	if !i.Valid {
		return nil
	}
	v := int(i.Int32)
	return &v
}

func timeToTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func timeToDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

func intToInt4(i *int) pgtype.Int4 {
	if i == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*i), Valid: true}
}

// strToText converts a string to pgtype.Text
func strToText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// recurrenceColumns flattens a recurrence into its three nullable columns.
func recurrenceColumns(r *domain.Recurrence) (pgtype.Text, pgtype.Int4, pgtype.Date) {
	if r == nil || r.Pattern == "" {
		return pgtype.Text{}, pgtype.Int4{}, pgtype.Date{}
	}
	return strToText(r.Pattern), intToInt4(r.Count), timeToDate(r.EndDate)
}

// recurrenceFromColumns is the inverse of recurrenceColumns.
func recurrenceFromColumns(pattern pgtype.Text, count pgtype.Int4, end pgtype.Date) *domain.Recurrence {
	if !pattern.Valid || pattern.String == "" {
		return nil
	}
	return &domain.Recurrence{
		Pattern: pattern.String,
		Count:   ptrInt(count),
		EndDate: ptrDate(end),
	}
}
