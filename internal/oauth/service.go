// Package oauth runs the consent flow and reports a user's calendar connection.
package oauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/osse101/calsync/internal/calendar"
	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/event"
	"github.com/osse101/calsync/internal/logger"
	"github.com/osse101/calsync/internal/webhook"
)

// NewGoogleConfig builds the OAuth client for the calendar scopes
func NewGoogleConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// CredentialStore is the slice of credentials.Store the service needs
type CredentialStore interface {
	Get(ctx context.Context, userID string) (*domain.Integration, error)
	SaveTokens(ctx context.Context, userID string, token *oauth2.Token) (*domain.Integration, error)
	Deactivate(ctx context.Context, userID string) error
	SetDefaultCalendar(ctx context.Context, userID, calendarID string) error
}

// TokenCache drops cached client handles
type TokenCache interface {
	Invalidate(userID string)
}

// Gateway is the slice of calendar.Gateway the service calls
type Gateway interface {
	ListCalendars(ctx context.Context, userID string) ([]domain.RemoteCalendar, error)
	GetCalendar(ctx context.Context, userID, calendarID string) (*domain.RemoteCalendar, error)
}

// Subscriptions opens and stops webhook channels
type Subscriptions interface {
	Resubscribe(ctx context.Context, userID string) (*domain.WebhookChannel, error)
	UnsubscribeUser(ctx context.Context, userID string) error
}

// Status describes a user's connection
type Status struct {
	Connected         bool                    `json:"connected"`
	DefaultCalendarID string                  `json:"defaultCalendarId"`
	Calendars         []domain.RemoteCalendar `json:"calendars"`
}

// Service connects and disconnects users from the calendar provider
type Service struct {
	config   *oauth2.Config
	store    CredentialStore
	tokens   TokenCache
	gateway  Gateway
	webhooks Subscriptions
	bus      event.Bus
}

// NewService creates an OAuth service. webhooks may be nil when push
// notifications are disabled.
func NewService(config *oauth2.Config, store CredentialStore, tokens TokenCache, gateway Gateway, webhooks Subscriptions, bus event.Bus) *Service {
	if bus == nil {
		bus = event.NopBus{}
	}
	return &Service{
		config:   config,
		store:    store,
		tokens:   tokens,
		gateway:  gateway,
		webhooks: webhooks,
		bus:      bus,
	}
}

// AuthURL returns the consent screen address. The state is the user id.
func (s *Service) AuthURL(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	return s.config.AuthCodeURL(userID, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam(ParamPrompt, PromptConsent)), nil
}

// Complete exchanges the authorization code and stores the tokens.
// It returns the user's calendars so a default can be picked.
func (s *Service) Complete(ctx context.Context, userID, code, state string) ([]domain.RemoteCalendar, error) {
	if userID == "" || subtle.ConstantTimeCompare([]byte(state), []byte(userID)) != 1 {
		return nil, domain.ErrStateMismatch
	}
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code is required", domain.ErrInvalidInput)
	}

	log := logger.FromContext(ctx)
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		log.Warn(LogMsgExchangeFailed, "user_id", userID, "error_code", exchangeErrorCode(err))
		return nil, fmt.Errorf("%w: code exchange failed", domain.ErrRemoteRejected)
	}

	if _, err := s.store.SaveTokens(ctx, userID, token); err != nil {
		return nil, fmt.Errorf("failed to save tokens: %w", err)
	}
	s.tokens.Invalidate(userID)
	log.Info(LogMsgConnected, "user_id", userID)

	s.resubscribe(ctx, userID)
	s.publish(ctx, event.CalendarConnected, domain.CalendarEventPayload{UserID: userID, Operation: OpConnect})

	calendars, err := s.gateway.ListCalendars(ctx, userID)
	if err != nil {
		return nil, err
	}
	return calendars, nil
}

// Status reports whether the user is connected. Calendar listing failures
// leave the list empty rather than failing the call.
func (s *Service) Status(ctx context.Context, userID string) (*Status, error) {
	status := &Status{DefaultCalendarID: domain.DefaultCalendarID, Calendars: []domain.RemoteCalendar{}}

	integration, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrIntegrationMissing) {
			return status, nil
		}
		return nil, err
	}
	status.DefaultCalendarID = integration.CalendarID()
	if !integration.IsActive {
		return status, nil
	}
	status.Connected = true

	calendars, err := s.gateway.ListCalendars(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgListCalendarsFailed, "user_id", userID, "error_code", calendar.ErrorCode(err))
		if errors.Is(err, domain.ErrReauthRequired) {
			status.Connected = false
		}
		return status, nil
	}
	status.Calendars = calendars
	return status, nil
}

// SetDefaultCalendar stores the calendar new events go to and moves the
// webhook channel onto it.
func (s *Service) SetDefaultCalendar(ctx context.Context, userID, calendarID string) error {
	if calendarID == "" {
		return fmt.Errorf("%w: calendar id is required", domain.ErrInvalidInput)
	}
	if _, err := s.gateway.GetCalendar(ctx, userID, calendarID); err != nil {
		if errors.Is(err, domain.ErrRemoteNotFound) {
			return fmt.Errorf("%w: unknown calendar", domain.ErrInvalidInput)
		}
		return err
	}
	if err := s.store.SetDefaultCalendar(ctx, userID, calendarID); err != nil {
		return err
	}
	s.resubscribe(ctx, userID)
	return nil
}

// Disconnect stops the user's channels and deactivates the integration.
// Stored rows are kept; reconnecting reactivates them.
func (s *Service) Disconnect(ctx context.Context, userID string) error {
	log := logger.FromContext(ctx)
	if s.webhooks != nil {
		if err := s.webhooks.UnsubscribeUser(ctx, userID); err != nil {
			log.Warn(LogMsgUnsubscribeFailed, "user_id", userID, "error_code", calendar.ErrorCode(err))
		}
	}
	if err := s.store.Deactivate(ctx, userID); err != nil {
		return err
	}
	s.tokens.Invalidate(userID)
	log.Info(LogMsgDisconnected, "user_id", userID)
	s.publish(ctx, event.CalendarDisconnected, domain.CalendarEventPayload{UserID: userID, Operation: OpDisconnect})
	return nil
}

func (s *Service) resubscribe(ctx context.Context, userID string) {
	if s.webhooks == nil {
		return
	}
	if _, err := s.webhooks.Resubscribe(ctx, userID); err != nil && !errors.Is(err, webhook.ErrNotConfigured) {
		logger.FromContext(ctx).Warn(LogMsgSubscribeFailed, "user_id", userID, "error_code", calendar.ErrorCode(err))
	}
}

func (s *Service) publish(ctx context.Context, t event.Type, payload domain.CalendarEventPayload) {
	if err := s.bus.Publish(ctx, event.NewCalendarEvent(t, payload)); err != nil {
		logger.FromContext(ctx).Warn(LogMsgPublishFailed, "type", t, "error", err)
	}
}

func exchangeErrorCode(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode != "" {
		return re.ErrorCode
	}
	return calendar.ErrorCode(err)
}
