package sync

import (
	gosync "sync"
	"time"

	"shopicsv/app/settings"

	"github.com/golang-jwt/jwt/v5"
)

// expirySkew refreshes tokens slightly before they actually expire
const expirySkew = 30 * time.Second

// tokenExpiry reads the exp claim without verifying the signature; the
// server verifies it. ok is false for opaque or exp-less tokens.
func tokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := new(jwt.Parser).ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// needsRefresh reports whether a token is expired or about to be
func needsRefresh(token string, now time.Time) bool {
	exp, ok := tokenExpiry(token)
	if !ok {
		return false
	}
	return !now.Add(expirySkew).Before(exp)
}

// SettingsTokenStore keeps tokens in the settings file
type SettingsTokenStore struct {
	svc *settings.SettingsService
}

// NewSettingsTokenStore wraps a settings service
func NewSettingsTokenStore(svc *settings.SettingsService) *SettingsTokenStore {
	return &SettingsTokenStore{svc: svc}
}

// Tokens implements TokenStore
func (s *SettingsTokenStore) Tokens() (string, string) {
	current := settings.GetEffectiveSettings()
	return current.SyncSessionToken, current.SyncRefreshToken
}

// SetTokens implements TokenStore
func (s *SettingsTokenStore) SetTokens(sessionToken, refreshToken string) error {
	return s.svc.SetSyncTokens(sessionToken, refreshToken)
}

// ClearTokens implements TokenStore
func (s *SettingsTokenStore) ClearTokens() error {
	return s.svc.ClearSyncTokens()
}

// MemoryTokenStore keeps tokens in memory
type MemoryTokenStore struct {
	mu      gosync.Mutex
	session string
	refresh string
}

// NewMemoryTokenStore creates a store holding the given pair
func NewMemoryTokenStore(sessionToken, refreshToken string) *MemoryTokenStore {
	return &MemoryTokenStore{session: sessionToken, refresh: refreshToken}
}

// Tokens implements TokenStore
func (m *MemoryTokenStore) Tokens() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, m.refresh
}

// SetTokens implements TokenStore
func (m *MemoryTokenStore) SetTokens(sessionToken, refreshToken string) error {
	m.mu.Lock()
	m.session, m.refresh = sessionToken, refreshToken
	m.mu.Unlock()
	return nil
}

// ClearTokens implements TokenStore
func (m *MemoryTokenStore) ClearTokens() error {
	return m.SetTokens("", "")
}
