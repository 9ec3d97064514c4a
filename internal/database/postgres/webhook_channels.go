package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/calsync/internal/domain"
)

// WebhookChannelRepository implements repository.WebhookChannels
type WebhookChannelRepository struct {
	db *pgxpool.Pool
}

// NewWebhookChannelRepository creates a new webhook channel repository
func NewWebhookChannelRepository(db *pgxpool.Pool) *WebhookChannelRepository {
	return &WebhookChannelRepository{db: db}
}

// Channels carry their owner's user id via the integration row.
const webhookChannelSelect = `
	SELECT w.id::text, w.channel_id, w.resource_id, w.calendar_id, w.expiration,
	       w.integration_id::text, i.user_id, w.created_at
	FROM calendar_webhooks w
	JOIN calendar_integrations i ON i.id = w.integration_id`

func scanWebhookChannel(row pgx.Row) (*domain.WebhookChannel, error) {
	var c domain.WebhookChannel
	err := row.Scan(
		&c.ID,
		&c.ChannelID,
		&c.ResourceID,
		&c.CalendarID,
		&c.Expiration,
		&c.IntegrationID,
		&c.UserID,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectChannels(rows pgx.Rows) ([]domain.WebhookChannel, error) {
	defer rows.Close()

	channels := []domain.WebhookChannel{}
	for rows.Next() {
		c, err := scanWebhookChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToScanChannelRow, err)
		}
		channels = append(channels, *c)
	}
	return channels, rows.Err()
}

// Create stores a newly opened channel
func (r *WebhookChannelRepository) Create(ctx context.Context, channel *domain.WebhookChannel) error {
	query := `
		INSERT INTO calendar_webhooks (channel_id, resource_id, calendar_id, expiration, integration_id)
		VALUES ($1, $2, $3, $4, $5::uuid)
		RETURNING id::text, created_at
	`
	err := r.db.QueryRow(ctx, query,
		channel.ChannelID,
		channel.ResourceID,
		channel.CalendarID,
		channel.Expiration,
		channel.IntegrationID,
	).Scan(&channel.ID, &channel.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate channel %s", domain.ErrInvalidInput, channel.ChannelID)
		}
		return fmt.Errorf("%s: %w", ErrMsgFailedToCreateChannel, err)
	}
	return nil
}

// GetByChannelID looks up a channel by the id the provider echoes back
func (r *WebhookChannelRepository) GetByChannelID(ctx context.Context, channelID string) (*domain.WebhookChannel, error) {
	c, err := scanWebhookChannel(r.db.QueryRow(ctx, webhookChannelSelect+` WHERE w.channel_id = $1`, channelID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChannelNotFound
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetChannel, err)
	}
	return c, nil
}

// ListByIntegration returns all channels opened for an integration
func (r *WebhookChannelRepository) ListByIntegration(ctx context.Context, integrationID string) ([]domain.WebhookChannel, error) {
	rows, err := r.db.Query(ctx,
		webhookChannelSelect+` WHERE w.integration_id::text = $1 ORDER BY w.expiration`, integrationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListChannels, err)
	}
	channels, err := collectChannels(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListChannels, err)
	}
	return channels, nil
}

// ListExpiringBefore returns channels that expire at or before cutoff
func (r *WebhookChannelRepository) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]domain.WebhookChannel, error) {
	rows, err := r.db.Query(ctx,
		webhookChannelSelect+` WHERE w.expiration <= $1 ORDER BY w.expiration`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListChannels, err)
	}
	channels, err := collectChannels(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListChannels, err)
	}
	return channels, nil
}

// DeleteByChannelID removes one channel; unknown ids are not an error
func (r *WebhookChannelRepository) DeleteByChannelID(ctx context.Context, channelID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM calendar_webhooks WHERE channel_id = $1`, channelID); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToDeleteChannel, err)
	}
	return nil
}

// DeleteExpired purges channels whose expiry is not after now
func (r *WebhookChannelRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM calendar_webhooks WHERE expiration <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToDeleteExpired, err)
	}
	return tag.RowsAffected(), nil
}
