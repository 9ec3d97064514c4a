package tokens

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/logger"
	"github.com/osse101/calsync/internal/metrics"
	"github.com/osse101/calsync/internal/provider"
)

// CredentialStore is the slice of credentials.Store the manager needs
type CredentialStore interface {
	Load(ctx context.Context, userID string) (*domain.Credentials, error)
	UpdateTokens(ctx context.Context, userID string, token *oauth2.Token) error
	Deactivate(ctx context.Context, userID string) error
}

// Refresher exchanges a refresh token for a new access token
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// OAuthRefresher refreshes through an oauth2.Config token source
type OAuthRefresher struct {
	config *oauth2.Config
}

// NewOAuthRefresher creates a Refresher for config
func NewOAuthRefresher(config *oauth2.Config) *OAuthRefresher {
	return &OAuthRefresher{config: config}
}

// Refresh always hits the token endpoint; the source has no access token to reuse.
func (r *OAuthRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
}

// Config holds the manager's tunables
type Config struct {
	CacheSize     int
	CacheTTL      time.Duration
	RefreshMargin time.Duration
	// RefreshTimeout bounds a shared refresh, which outlives any single caller.
	RefreshTimeout time.Duration
}

// Manager hands out live calendar clients per user.
// Client handles are cached for CacheTTL and dropped on every refresh.
// At most one load and one forced refresh run per user; concurrent callers
// of the same kind share the result.
type Manager struct {
	store     CredentialStore
	refresher Refresher
	factory   provider.Factory
	cache     *expirable.LRU[string, provider.Client]
	group     singleflight.Group
	cfg       Config
	now       func() time.Time

	// generations counts token writes per user. A build only caches its
	// client when no newer token was written while it ran.
	genMu       sync.Mutex
	generations map[string]uint64
}

// NewManager creates a token manager
func NewManager(store CredentialStore, refresher Refresher, factory provider.Factory, cfg Config) *Manager {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultRefreshTimeout
	}
	return &Manager{
		store:     store,
		refresher: refresher,
		factory:   factory,
		cache:     expirable.NewLRU[string, provider.Client](cfg.CacheSize, nil, cfg.CacheTTL),
		cfg:         cfg,
		now:         time.Now,
		generations: make(map[string]uint64),
	}
}

// GetClient returns a client holding a non-expired access token.
// Fails with domain.ErrIntegrationMissing or domain.ErrReauthRequired.
func (m *Manager) GetClient(ctx context.Context, userID string) (provider.Client, error) {
	if client, ok := m.cache.Get(userID); ok {
		metrics.TokenCacheLookups.WithLabelValues(metrics.CacheHit).Inc()
		return client, nil
	}
	metrics.TokenCacheLookups.WithLabelValues(metrics.CacheMiss).Inc()

	return m.shared(ctx, clientKey(userID), func(ctx context.Context) (provider.Client, error) {
		if client, ok := m.cache.Get(userID); ok {
			return client, nil
		}
		return m.build(ctx, userID, false)
	})
}

// ForceRefresh refreshes the user's token regardless of its expiry and
// returns a fresh client. Used after the provider rejected a token, so it
// never joins an in-flight load that may still carry the rejected token.
func (m *Manager) ForceRefresh(ctx context.Context, userID string) (provider.Client, error) {
	m.cache.Remove(userID)
	return m.shared(ctx, refreshKey(userID), func(ctx context.Context) (provider.Client, error) {
		return m.build(ctx, userID, true)
	})
}

// Invalidate drops the cached client for a user
func (m *Manager) Invalidate(userID string) {
	m.cache.Remove(userID)
}

// shared runs fn once per key. The work is detached from the first caller's
// cancellation; each caller still stops waiting when its own ctx ends.
func (m *Manager) shared(ctx context.Context, key string, fn func(context.Context) (provider.Client, error)) (provider.Client, error) {
	ch := m.group.DoChan(key, func() (interface{}, error) {
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.RefreshTimeout)
		defer cancel()
		return fn(workCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(provider.Client), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) build(ctx context.Context, userID string, force bool) (provider.Client, error) {
	gen := m.generation(userID)
	creds, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.Expiry,
		TokenType:    "Bearer",
	}

	if force || m.needsRefresh(creds) {
		token, gen, err = m.refresh(ctx, userID, creds.RefreshToken)
		if err != nil {
			return nil, err
		}
	}

	client, err := m.factory.NewClient(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar client: %w", err)
	}

	m.genMu.Lock()
	if m.generations[userID] == gen {
		m.cache.Add(userID, client)
	}
	m.genMu.Unlock()
	return client, nil
}

func (m *Manager) generation(userID string) uint64 {
	m.genMu.Lock()
	defer m.genMu.Unlock()
	return m.generations[userID]
}

// tokenWritten drops the cached client and returns the user's new generation
func (m *Manager) tokenWritten(userID string) uint64 {
	m.genMu.Lock()
	defer m.genMu.Unlock()
	m.generations[userID]++
	m.cache.Remove(userID)
	return m.generations[userID]
}

func (m *Manager) needsRefresh(creds *domain.Credentials) bool {
	if creds.AccessToken == "" {
		return true
	}
	if creds.Expiry.IsZero() {
		return false
	}
	return !creds.Expiry.After(m.now().Add(m.cfg.RefreshMargin))
}

func (m *Manager) refresh(ctx context.Context, userID, refreshToken string) (*oauth2.Token, uint64, error) {
	log := logger.FromContext(ctx)

	if refreshToken == "" {
		return nil, 0, m.revoke(ctx, userID, errors.New("no refresh token stored"))
	}

	token, err := m.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		if IsRevoked(err) {
			return nil, 0, m.revoke(ctx, userID, err)
		}
		metrics.TokenRefreshes.WithLabelValues(metrics.OutcomeTransient).Inc()
		log.Warn(LogMsgRefreshFailed, "user_id", userID, "error_code", errorCode(err))
		return nil, 0, fmt.Errorf("%w: token refresh failed", domain.ErrRemoteTransient)
	}

	if err := m.store.UpdateTokens(ctx, userID, token); err != nil {
		return nil, 0, fmt.Errorf("failed to persist refreshed token: %w", err)
	}
	gen := m.tokenWritten(userID)

	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}

	metrics.TokenRefreshes.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Debug(LogMsgTokenRefreshed, "user_id", userID)
	return token, gen, nil
}

// revoke deactivates the integration; the user has to reconnect
func (m *Manager) revoke(ctx context.Context, userID string, cause error) error {
	m.cache.Remove(userID)
	metrics.TokenRefreshes.WithLabelValues(metrics.OutcomeReauth).Inc()
	logger.FromContext(ctx).Warn(LogMsgConsentRevoked, "user_id", userID, "error_code", errorCode(cause))

	if err := m.store.Deactivate(ctx, userID); err != nil {
		logger.FromContext(ctx).Error(LogMsgDeactivateFailed, "user_id", userID, "error", err)
	}
	return domain.ErrReauthRequired
}

// IsRevoked reports whether a refresh failure means consent is gone
func IsRevoked(err error) bool {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return false
	}
	if re.ErrorCode == errCodeInvalidGrant || re.ErrorCode == errCodeUnauthorizedClient {
		return true
	}
	return strings.Contains(string(re.Body), errCodeInvalidGrant)
}

func errorCode(err error) string {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode != "" {
		return re.ErrorCode
	}
	return "unknown"
}

func clientKey(userID string) string {
	return "client:" + userID
}

func refreshKey(userID string) string {
	return "refresh:" + userID
}
