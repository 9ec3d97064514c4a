package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/calsync/internal/database/postgres"
	"github.com/osse101/calsync/internal/repository"
)

// Repositories holds the Postgres implementations of the calendar repositories
type Repositories struct {
	Integrations    repository.Integrations
	EventLinks      repository.EventLinks
	WebhookChannels repository.WebhookChannels
	Tasks           repository.Tasks
}

// InitializeRepositories creates all repository implementations
func InitializeRepositories(dbPool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Integrations:    postgres.NewIntegrationRepository(dbPool),
		EventLinks:      postgres.NewEventLinkRepository(dbPool),
		WebhookChannels: postgres.NewWebhookChannelRepository(dbPool),
		Tasks:           postgres.NewTaskRepository(dbPool),
	}
}
