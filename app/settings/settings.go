package settings

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigDirEnv overrides the directory holding shopicsv.yml and local snapshots
const ConfigDirEnv = "SHOPICSV_CONFIG_DIR"

const settingsFileName = "shopicsv.yml"

// GetEffectiveSettings returns the effective settings (defaults overlaid with file overrides if any).
// If anything goes wrong, it returns defaults.
func GetEffectiveSettings() Settings {
	settings := defaultSettings
	path, err := settingsFilePath()
	if err != nil {
		return settings
	}
	if _, err := os.Stat(path); err != nil {
		// no file or other stat error -> return defaults
		return settings
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return settings
	}
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return settings
	}
	overlay(&settings, m)
	return settings
}

// overlay copies recognised keys from a decoded YAML document onto settings.
// Values of the wrong type or out of range are ignored.
func overlay(settings *Settings, m map[string]any) {
	if v, ok := m["autosave_interval_ms"]; ok {
		if vi, oki := v.(int); oki && vi >= 1000 {
			settings.AutosaveIntervalMs = vi
		}
	}
	if v, ok := m["sync_base_url"]; ok {
		if vs, oks := v.(string); oks {
			settings.SyncBaseURL = strings.TrimRight(strings.TrimSpace(vs), "/")
		}
	}
	if v, ok := m["sync_session_token"]; ok {
		if vs, oks := v.(string); oks {
			settings.SyncSessionToken = vs
		}
	}
	if v, ok := m["sync_refresh_token"]; ok {
		if vs, oks := v.(string); oks {
			settings.SyncRefreshToken = vs
		}
	}
	if v, ok := m["instance_id"]; ok {
		if vs, oks := v.(string); oks {
			settings.InstanceID = vs
		}
	}
	if v, ok := m["snapshot_backend"]; ok {
		if vs, oks := v.(string); oks {
			switch b := strings.ToLower(strings.TrimSpace(vs)); b {
			case BackendFile, BackendDynamoDB, BackendMemory:
				settings.SnapshotBackend = b
			}
		}
	}
	if v, ok := m["snapshot_dir"]; ok {
		if vs, oks := v.(string); oks {
			settings.SnapshotDir = vs
		}
	}
	if v, ok := m["dynamodb_table"]; ok {
		if vs, oks := v.(string); oks {
			settings.DynamoDBTable = vs
		}
	}
	if v, ok := m["download_prefix"]; ok {
		if vs, oks := v.(string); oks && strings.TrimSpace(vs) != "" {
			settings.DownloadPrefix = strings.TrimSpace(vs)
		}
	}
	if v, ok := m["display_timezone"]; ok {
		if vs, oks := v.(string); oks && strings.TrimSpace(vs) != "" {
			settings.DisplayTimezone = strings.TrimSpace(vs)
		}
	}
	if v, ok := m["window_width"]; ok {
		if vi, oki := v.(int); oki && vi >= 400 {
			settings.WindowWidth = vi
		}
	}
	if v, ok := m["window_height"]; ok {
		if vi, oki := v.(int); oki && vi >= 300 {
			settings.WindowHeight = vi
		}
	}
}

// ConfigDir returns $SHOPICSV_CONFIG_DIR, or <user config dir>/shopicsv
func ConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(ConfigDirEnv)); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "shopicsv"), nil
}

// ResolveSnapshotDir returns the configured snapshot directory or the default under ConfigDir
func ResolveSnapshotDir(s Settings) (string, error) {
	if dir := strings.TrimSpace(s.SnapshotDir); dir != "" {
		return dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "snapshots"), nil
}

func settingsFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, settingsFileName), nil
}
