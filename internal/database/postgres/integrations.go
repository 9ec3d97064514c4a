package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/calsync/internal/domain"
)

// IntegrationRepository implements repository.Integrations
type IntegrationRepository struct {
	db *pgxpool.Pool
}

// NewIntegrationRepository creates a new integration repository
func NewIntegrationRepository(db *pgxpool.Pool) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

const integrationColumns = `
	id::text, user_id, provider, is_active, access_token, refresh_token,
	token_expiry, COALESCE(default_calendar_id, ''), created_at, updated_at`

func scanIntegration(row pgx.Row) (*domain.Integration, error) {
	var (
		i      domain.Integration
		expiry pgtype.Timestamptz
	)
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Provider,
		&i.IsActive,
		&i.AccessToken,
		&i.RefreshToken,
		&expiry,
		&i.DefaultCalendarID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	i.TokenExpiry = ptrTime(expiry)
	return &i, nil
}

// GetByUser returns the user's integration for a provider
func (r *IntegrationRepository) GetByUser(ctx context.Context, userID, provider string) (*domain.Integration, error) {
	query := `SELECT ` + integrationColumns + `
		FROM calendar_integrations
		WHERE user_id = $1 AND provider = $2`

	i, err := scanIntegration(r.db.QueryRow(ctx, query, userID, provider))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIntegrationMissing
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetIntegration, err)
	}
	return i, nil
}

// GetByID returns an integration by primary key
func (r *IntegrationRepository) GetByID(ctx context.Context, id string) (*domain.Integration, error) {
	query := `SELECT ` + integrationColumns + `
		FROM calendar_integrations
		WHERE id::text = $1`

	i, err := scanIntegration(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIntegrationMissing
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetIntegration, err)
	}
	return i, nil
}

// Upsert inserts or replaces the tokens for (user, provider) and reactivates the row.
// The default calendar survives a reconnect.
func (r *IntegrationRepository) Upsert(ctx context.Context, integration *domain.Integration) error {
	query := `
		INSERT INTO calendar_integrations
			(user_id, provider, is_active, access_token, refresh_token, token_expiry, default_calendar_id)
		VALUES ($1, $2, TRUE, $3, $4, $5, $6)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			is_active = TRUE,
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, calendar_integrations.refresh_token),
			token_expiry = EXCLUDED.token_expiry,
			default_calendar_id = COALESCE(EXCLUDED.default_calendar_id, calendar_integrations.default_calendar_id),
			updated_at = NOW()
		RETURNING id::text, is_active, COALESCE(default_calendar_id, ''), created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		integration.UserID,
		integration.Provider,
		integration.AccessToken,
		integration.RefreshToken,
		timeToTimestamptz(integration.TokenExpiry),
		strToText(integration.DefaultCalendarID),
	).Scan(
		&integration.ID,
		&integration.IsActive,
		&integration.DefaultCalendarID,
		&integration.CreatedAt,
		&integration.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpsertIntegration, err)
	}
	return nil
}

// UpdateTokens stores refreshed tokens. A nil refresh token keeps the stored one.
func (r *IntegrationRepository) UpdateTokens(ctx context.Context, userID, provider string, accessToken, refreshToken []byte, expiry *time.Time) error {
	query := `
		UPDATE calendar_integrations
		SET access_token = $3,
		    refresh_token = COALESCE($4, refresh_token),
		    token_expiry = $5,
		    updated_at = NOW()
		WHERE user_id = $1 AND provider = $2
	`
	tag, err := r.db.Exec(ctx, query, userID, provider, accessToken, refreshToken, timeToTimestamptz(expiry))
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateTokens, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIntegrationMissing
	}
	return nil
}

// SetActive flips the soft-disconnect flag
func (r *IntegrationRepository) SetActive(ctx context.Context, userID, provider string, active bool) error {
	query := `
		UPDATE calendar_integrations
		SET is_active = $3, updated_at = NOW()
		WHERE user_id = $1 AND provider = $2
	`
	tag, err := r.db.Exec(ctx, query, userID, provider, active)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToSetActive, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIntegrationMissing
	}
	return nil
}

// SetDefaultCalendar stores the calendar new events are created in
func (r *IntegrationRepository) SetDefaultCalendar(ctx context.Context, userID, provider, calendarID string) error {
	query := `
		UPDATE calendar_integrations
		SET default_calendar_id = $3, updated_at = NOW()
		WHERE user_id = $1 AND provider = $2
	`
	tag, err := r.db.Exec(ctx, query, userID, provider, strToText(calendarID))
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToSetDefaultCalendar, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIntegrationMissing
	}
	return nil
}

// Delete removes the integration row; its webhook channels cascade
func (r *IntegrationRepository) Delete(ctx context.Context, userID, provider string) error {
	query := `DELETE FROM calendar_integrations WHERE user_id = $1 AND provider = $2`
	if _, err := r.db.Exec(ctx, query, userID, provider); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToDeleteIntegration, err)
	}
	return nil
}
