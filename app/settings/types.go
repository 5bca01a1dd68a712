package settings

// Snapshot backend names
const (
	BackendFile     = "file"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Settings holds application settings that can be overridden by the user.
type Settings struct {
	// Interval between autosaves while a file is being edited
	AutosaveIntervalMs int `yaml:"autosave_interval_ms" json:"autosave_interval_ms"`
	// Base URL of the remote save endpoint, e.g. "https://api.example.com"
	SyncBaseURL      string `yaml:"sync_base_url" json:"sync_base_url"`
	SyncSessionToken string `yaml:"sync_session_token,omitempty" json:"sync_session_token,omitempty"`
	SyncRefreshToken string `yaml:"sync_refresh_token,omitempty" json:"sync_refresh_token,omitempty"`
	// InstanceID is a unique identifier for this installation (not visible in settings dialog)
	InstanceID string `yaml:"instance_id,omitempty" json:"instance_id,omitempty"`
	// Where the snapshot lives: "file", "dynamodb" or "memory"
	SnapshotBackend string `yaml:"snapshot_backend" json:"snapshot_backend"`
	// Directory for the file backend. Empty means <config dir>/snapshots
	SnapshotDir   string `yaml:"snapshot_dir,omitempty" json:"snapshot_dir,omitempty"`
	DynamoDBTable string `yaml:"dynamodb_table,omitempty" json:"dynamodb_table,omitempty"`
	// Prefix of downloaded file names, joined to the original name with "_"
	DownloadPrefix string `yaml:"download_prefix" json:"download_prefix"`
	// Timezone of "saved at" times: "Local", "UTC" or an IANA name
	DisplayTimezone string `yaml:"display_timezone" json:"display_timezone"`
	// Window size settings (not visible in settings dialog, but persisted)
	WindowWidth  int `yaml:"window_width,omitempty" json:"window_width,omitempty"`
	WindowHeight int `yaml:"window_height,omitempty" json:"window_height,omitempty"`
}

// ChangeListener is notified after settings were saved.
// This breaks the circular dependency between app and settings packages
type ChangeListener interface {
	SettingsChanged(old, updated Settings)
}

// defaultSettings defines the built-in defaults.
var defaultSettings = Settings{
	AutosaveIntervalMs: 180000, // 3 minutes
	SyncBaseURL:        "",
	SnapshotBackend:    BackendFile,
	DownloadPrefix:     "ShopiCSV",
	DisplayTimezone:    "Local",
	// Default window size (matches main.go defaults)
	WindowWidth:  1280,
	WindowHeight: 800,
}

// Defaults returns a copy of the built-in defaults
func Defaults() Settings {
	return defaultSettings
}
