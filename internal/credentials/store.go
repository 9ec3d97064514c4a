package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/encryption"
	"github.com/osse101/calsync/internal/logger"
	"github.com/osse101/calsync/internal/repository"
)

// Store is the encrypted credential store for calendar integrations.
// Plaintext tokens exist only in the values it returns.
type Store struct {
	repo     repository.Integrations
	cipher   *encryption.Cipher
	provider string
}

// NewStore creates a Store for the Google Calendar provider
func NewStore(repo repository.Integrations, cipher *encryption.Cipher) *Store {
	return &Store{
		repo:     repo,
		cipher:   cipher,
		provider: domain.ProviderGoogleCalendar,
	}
}

// Get returns integration metadata without decrypting anything.
// Inactive integrations are returned as-is; callers check IsActive.
func (s *Store) Get(ctx context.Context, userID string) (*domain.Integration, error) {
	return s.repo.GetByUser(ctx, userID, s.provider)
}

// GetActive returns the integration or ErrIntegrationMissing when it is inactive
func (s *Store) GetActive(ctx context.Context, userID string) (*domain.Integration, error) {
	integration, err := s.repo.GetByUser(ctx, userID, s.provider)
	if err != nil {
		return nil, err
	}
	if !integration.IsActive {
		return nil, domain.ErrIntegrationMissing
	}
	return integration, nil
}

// Load decrypts the credential triple of an active integration
func (s *Store) Load(ctx context.Context, userID string) (*domain.Credentials, error) {
	integration, err := s.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	access, err := s.cipher.Decrypt(integration.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refresh, err := s.cipher.Decrypt(integration.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	creds := &domain.Credentials{AccessToken: access, RefreshToken: refresh}
	if integration.TokenExpiry != nil {
		creds.Expiry = *integration.TokenExpiry
	}
	return creds, nil
}

// SaveTokens stores the result of an OAuth code exchange and marks the
// integration active. A missing refresh token keeps the stored one.
func (s *Store) SaveTokens(ctx context.Context, userID string, token *oauth2.Token) (*domain.Integration, error) {
	access, refresh, err := s.encryptPair(token)
	if err != nil {
		return nil, err
	}

	integration := &domain.Integration{
		UserID:       userID,
		Provider:     s.provider,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenExpiry:  expiryOf(token),
	}
	if err := s.repo.Upsert(ctx, integration); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Calendar credentials stored", "user_id", userID)
	return integration, nil
}

// UpdateTokens persists a refreshed token triple
func (s *Store) UpdateTokens(ctx context.Context, userID string, token *oauth2.Token) error {
	access, refresh, err := s.encryptPair(token)
	if err != nil {
		return err
	}
	return s.repo.UpdateTokens(ctx, userID, s.provider, access, refresh, expiryOf(token))
}

// Deactivate soft-disconnects the integration. Rows and tokens are kept.
func (s *Store) Deactivate(ctx context.Context, userID string) error {
	err := s.repo.SetActive(ctx, userID, s.provider, false)
	if errors.Is(err, domain.ErrIntegrationMissing) {
		return nil
	}
	return err
}

// SetDefaultCalendar records where new events are created
func (s *Store) SetDefaultCalendar(ctx context.Context, userID, calendarID string) error {
	return s.repo.SetDefaultCalendar(ctx, userID, s.provider, calendarID)
}

// Delete removes the integration permanently. Only account deletion uses this.
func (s *Store) Delete(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID, s.provider)
}

func (s *Store) encryptPair(token *oauth2.Token) (access, refresh []byte, err error) {
	if token == nil || token.AccessToken == "" {
		return nil, nil, fmt.Errorf("%w: empty access token", domain.ErrInvalidInput)
	}
	access, err = s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	// nil keeps the stored refresh token
	refresh, err = s.cipher.Encrypt(token.RefreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
	}
	return access, refresh, nil
}

func expiryOf(token *oauth2.Token) *time.Time {
	if token.Expiry.IsZero() {
		return nil
	}
	expiry := token.Expiry.UTC()
	return &expiry
}
