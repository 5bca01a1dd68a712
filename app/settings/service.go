package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SettingsService manages reading/writing settings from disk.
type SettingsService struct {
	ctx      context.Context
	listener ChangeListener
}

func NewSettingsService() *SettingsService {
	return &SettingsService{}
}

// SetChangeListener allows the main function to inject a listener for saved changes
func (s *SettingsService) SetChangeListener(l ChangeListener) {
	s.listener = l
}

// Startup receives the Wails context
func (s *SettingsService) Startup(ctx context.Context) {
	s.ctx = ctx
}

// GetSettings returns the effective settings (defaults overlaid with file overrides if any).
func (s *SettingsService) GetSettings() (Settings, error) {
	// Start with defaults and overlay any on-disk overrides
	settings := defaultSettings
	path, err := settingsFilePath()
	if err != nil {
		return settings, err
	}
	// If file doesn't exist, return defaults
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return settings, err
	}
	// Unmarshal into a generic map to detect key presence
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return settings, err
	}
	overlay(&settings, m)
	return settings, nil
}

// SaveSettings saves only the values that differ from defaults into YAML in the config directory.
func (s *SettingsService) SaveSettings(in Settings) error {
	old := GetEffectiveSettings()

	// Build a minimal map containing only non-default values to avoid zero-value serialization pitfalls
	data := make(map[string]any)
	if in.AutosaveIntervalMs != defaultSettings.AutosaveIntervalMs && in.AutosaveIntervalMs >= 1000 {
		data["autosave_interval_ms"] = in.AutosaveIntervalMs
	}
	if baseURL := strings.TrimRight(strings.TrimSpace(in.SyncBaseURL), "/"); baseURL != defaultSettings.SyncBaseURL {
		data["sync_base_url"] = baseURL
	}
	if backend := strings.ToLower(strings.TrimSpace(in.SnapshotBackend)); backend != "" && backend != defaultSettings.SnapshotBackend {
		data["snapshot_backend"] = backend
	}
	if dir := strings.TrimSpace(in.SnapshotDir); dir != "" {
		data["snapshot_dir"] = dir
	}
	if table := strings.TrimSpace(in.DynamoDBTable); table != "" {
		data["dynamodb_table"] = table
	}
	if prefix := strings.TrimSpace(in.DownloadPrefix); prefix != "" && prefix != defaultSettings.DownloadPrefix {
		data["download_prefix"] = prefix
	}

	// Preserve sync tokens (not visible in settings dialog, but must persist)
	// Use incoming tokens if provided, otherwise use the existing ones from old settings
	syncSessionToken := strings.TrimSpace(in.SyncSessionToken)
	if syncSessionToken == "" {
		syncSessionToken = strings.TrimSpace(old.SyncSessionToken)
	}
	if syncSessionToken != "" {
		data["sync_session_token"] = syncSessionToken
	}

	syncRefreshToken := strings.TrimSpace(in.SyncRefreshToken)
	if syncRefreshToken == "" {
		syncRefreshToken = strings.TrimSpace(old.SyncRefreshToken)
	}
	if syncRefreshToken != "" {
		data["sync_refresh_token"] = syncRefreshToken
	}

	// Preserve instance ID (not visible in settings dialog, but must persist)
	instanceID := strings.TrimSpace(in.InstanceID)
	if instanceID == "" {
		instanceID = strings.TrimSpace(old.InstanceID)
	}
	if instanceID != "" {
		data["instance_id"] = instanceID
	}

	// Preserve window size (not visible in settings dialog, but must persist)
	windowWidth := in.WindowWidth
	if windowWidth == 0 {
		windowWidth = old.WindowWidth
	}
	if windowWidth != defaultSettings.WindowWidth && windowWidth >= 400 {
		data["window_width"] = windowWidth
	}

	windowHeight := in.WindowHeight
	if windowHeight == 0 {
		windowHeight = old.WindowHeight
	}
	if windowHeight != defaultSettings.WindowHeight && windowHeight >= 300 {
		data["window_height"] = windowHeight
	}

	if err := writeSettingsFile(data); err != nil {
		return err
	}

	if s.listener != nil {
		s.listener.SettingsChanged(old, GetEffectiveSettings())
	}
	return nil
}

// SetSyncTokens stores a new session/refresh token pair
func (s *SettingsService) SetSyncTokens(sessionToken, refreshToken string) error {
	settings, err := s.GetSettings()
	if err != nil {
		return err
	}
	settings.SyncSessionToken = sessionToken
	settings.SyncRefreshToken = refreshToken
	return s.SaveSettings(settings)
}

// ClearSyncTokens removes the sync session and refresh tokens from the settings file
func (s *SettingsService) ClearSyncTokens() error {
	settings, err := s.GetSettings()
	if err != nil {
		return err
	}

	// SaveSettings falls back to the stored tokens when the incoming ones are
	// empty, so write the file directly without them.
	settings.SyncSessionToken = ""
	settings.SyncRefreshToken = ""
	return writeSettingsFile(nonDefaults(settings))
}

// EnsureInstanceID generates and saves a unique instance ID if one doesn't exist
func (s *SettingsService) EnsureInstanceID() (string, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return "", err
	}

	if id := strings.TrimSpace(settings.InstanceID); id != "" {
		return id, nil
	}

	settings.InstanceID = uuid.New().String()
	if err := s.SaveSettings(settings); err != nil {
		return "", err
	}
	return settings.InstanceID, nil
}

// nonDefaults returns the non-default fields of settings keyed by their YAML
// name. Empty tokens are dropped instead of falling back to stored ones.
func nonDefaults(in Settings) map[string]any {
	data := make(map[string]any)
	if in.AutosaveIntervalMs != defaultSettings.AutosaveIntervalMs && in.AutosaveIntervalMs >= 1000 {
		data["autosave_interval_ms"] = in.AutosaveIntervalMs
	}
	if in.SyncBaseURL != defaultSettings.SyncBaseURL {
		data["sync_base_url"] = in.SyncBaseURL
	}
	if in.SnapshotBackend != "" && in.SnapshotBackend != defaultSettings.SnapshotBackend {
		data["snapshot_backend"] = in.SnapshotBackend
	}
	if in.SnapshotDir != "" {
		data["snapshot_dir"] = in.SnapshotDir
	}
	if in.DynamoDBTable != "" {
		data["dynamodb_table"] = in.DynamoDBTable
	}
	if in.DownloadPrefix != "" && in.DownloadPrefix != defaultSettings.DownloadPrefix {
		data["download_prefix"] = in.DownloadPrefix
	}
	if in.DisplayTimezone != "" && in.DisplayTimezone != defaultSettings.DisplayTimezone {
		data["display_timezone"] = in.DisplayTimezone
	}
	if in.SyncSessionToken != "" {
		data["sync_session_token"] = in.SyncSessionToken
	}
	if in.SyncRefreshToken != "" {
		data["sync_refresh_token"] = in.SyncRefreshToken
	}
	// Instance ID must not be cleared during logout
	if in.InstanceID != "" {
		data["instance_id"] = in.InstanceID
	}
	if in.WindowWidth != defaultSettings.WindowWidth && in.WindowWidth >= 400 {
		data["window_width"] = in.WindowWidth
	}
	if in.WindowHeight != defaultSettings.WindowHeight && in.WindowHeight >= 300 {
		data["window_height"] = in.WindowHeight
	}
	return data
}

func writeSettingsFile(data map[string]any) error {
	path, err := settingsFilePath()
	if err != nil {
		return err
	}

	if len(data) == 0 {
		// If there is an existing file, remove it to reflect defaults-only state
		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(path)
		}
		return nil
	}

	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
