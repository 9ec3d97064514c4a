package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/osse101/calsync/internal/availability"
	"github.com/osse101/calsync/internal/calendar"
	"github.com/osse101/calsync/internal/config"
	"github.com/osse101/calsync/internal/credentials"
	"github.com/osse101/calsync/internal/encryption"
	"github.com/osse101/calsync/internal/event"
	"github.com/osse101/calsync/internal/mirror"
	"github.com/osse101/calsync/internal/oauth"
	"github.com/osse101/calsync/internal/provider"
	"github.com/osse101/calsync/internal/tokens"
	"github.com/osse101/calsync/internal/webhook"
)

// Services is the wired calendar service graph
type Services struct {
	Credentials  *credentials.Store
	Tokens       *tokens.Manager
	Gateway      *calendar.Gateway
	Webhooks     *webhook.Manager
	Engine       *mirror.Engine
	Availability *availability.Checker
	OAuth        *oauth.Service
}

// InitializeServices builds every service on top of repos, publishing through bus
func InitializeServices(cfg *config.Config, repos *Repositories, bus event.Bus) (*Services, error) {
	cipher, err := encryption.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token encryption: %w", err)
	}
	if !cipher.IsConfigured() {
		slog.Warn(LogMsgEncryptionDisabled)
	}

	store := credentials.NewStore(repos.Integrations, cipher)
	oauthConfig := oauth.NewGoogleConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)

	tokenManager := tokens.NewManager(store, tokens.NewOAuthRefresher(oauthConfig), provider.NewGoogleFactory(), tokens.Config{
		CacheTTL:      cfg.TokenCacheTTL,
		RefreshMargin: cfg.TokenRefreshMargin,
	})
	gateway := calendar.NewGateway(tokenManager, calendar.DefaultRetryPolicy(), cfg.CalendarTimeout)

	signer := webhook.NewSigner(cfg.WebhookSecret)
	webhooks := webhook.NewManager(gateway, store, repos.WebhookChannels, signer, bus, webhook.Config{
		CallbackURL: cfg.WebhookCallbackURL(),
		TTL:         cfg.WebhookTTL,
	})
	if !webhooks.Enabled() {
		slog.Info(LogMsgWebhooksDisabled)
	}

	loc := cfg.Location()
	return &Services{
		Credentials:  store,
		Tokens:       tokenManager,
		Gateway:      gateway,
		Webhooks:     webhooks,
		Engine:       mirror.NewEngine(gateway, store, repos.EventLinks, repos.WebhookChannels, repos.Tasks, signer, bus, loc),
		Availability: availability.NewChecker(gateway, store, loc),
		OAuth:        oauth.NewService(oauthConfig, store, tokenManager, gateway, webhooks, bus),
	}, nil
}
