package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordingListener struct {
	calls   int
	old     Settings
	updated Settings
}

func (r *recordingListener) SettingsChanged(old, updated Settings) {
	r.calls++
	r.old = old
	r.updated = updated
}

func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(ConfigDirEnv, dir)
	return dir
}

func TestDefaultsWhenNoFile(t *testing.T) {
	withConfigDir(t)
	s, err := NewSettingsService().GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if s != Defaults() {
		t.Errorf("expected defaults, got %+v", s)
	}
	if s.AutosaveIntervalMs != 180000 || s.DownloadPrefix != "ShopiCSV" || s.SnapshotBackend != BackendFile {
		t.Errorf("unexpected default values: %+v", s)
	}
}

func TestOverridesAreOverlaid(t *testing.T) {
	dir := withConfigDir(t)
	content := `autosave_interval_ms: 60000
sync_base_url: "https://api.example.com/"
snapshot_backend: DynamoDB
dynamodb_table: shopicsv-snapshots
download_prefix: Export
display_timezone: Europe/Paris
window_width: 100
unknown_key: true
`
	if err := os.WriteFile(filepath.Join(dir, "shopicsv.yml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := GetEffectiveSettings()
	if s.AutosaveIntervalMs != 60000 {
		t.Errorf("expected autosave 60000, got %d", s.AutosaveIntervalMs)
	}
	if s.SyncBaseURL != "https://api.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", s.SyncBaseURL)
	}
	if s.SnapshotBackend != BackendDynamoDB || s.DynamoDBTable != "shopicsv-snapshots" {
		t.Errorf("unexpected backend settings: %+v", s)
	}
	if s.DownloadPrefix != "Export" {
		t.Errorf("expected prefix Export, got %q", s.DownloadPrefix)
	}
	if s.DisplayTimezone != "Europe/Paris" {
		t.Errorf("expected timezone Europe/Paris, got %q", s.DisplayTimezone)
	}
	// Too small, ignored
	if s.WindowWidth != Defaults().WindowWidth {
		t.Errorf("expected default width, got %d", s.WindowWidth)
	}
}

func TestInvalidValuesIgnored(t *testing.T) {
	dir := withConfigDir(t)
	content := `autosave_interval_ms: 10
snapshot_backend: postgres
download_prefix: "   "
`
	if err := os.WriteFile(filepath.Join(dir, "shopicsv.yml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s := GetEffectiveSettings()
	if s != Defaults() {
		t.Errorf("expected defaults for invalid values, got %+v", s)
	}
}

func TestSaveOnlyPersistsNonDefaults(t *testing.T) {
	dir := withConfigDir(t)
	svc := NewSettingsService()
	listener := &recordingListener{}
	svc.SetChangeListener(listener)

	s := Defaults()
	s.AutosaveIntervalMs = 30000
	if err := svc.SaveSettings(s); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "shopicsv.yml"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(b)
	if !strings.Contains(text, "autosave_interval_ms: 30000") {
		t.Errorf("expected autosave override in file, got:\n%s", text)
	}
	if strings.Contains(text, "download_prefix") || strings.Contains(text, "window_width") {
		t.Errorf("defaults should not be persisted, got:\n%s", text)
	}

	if listener.calls != 1 || listener.old.AutosaveIntervalMs != 180000 || listener.updated.AutosaveIntervalMs != 30000 {
		t.Errorf("unexpected listener notification: %+v", listener)
	}

	// Back to defaults removes the file
	if err := svc.SaveSettings(Defaults()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "shopicsv.yml")); !os.IsNotExist(err) {
		t.Errorf("expected settings file to be removed, stat err = %v", err)
	}
}

func TestSyncTokensPersistAndClear(t *testing.T) {
	withConfigDir(t)
	svc := NewSettingsService()

	if err := svc.SetSyncTokens("session", "refresh"); err != nil {
		t.Fatal(err)
	}
	id, err := svc.EnsureInstanceID()
	if err != nil {
		t.Fatal(err)
	}

	// Saving from the dialog (which never carries tokens) keeps them
	s, _ := svc.GetSettings()
	s.SyncSessionToken = ""
	s.SyncRefreshToken = ""
	s.DownloadPrefix = "Mine"
	if err := svc.SaveSettings(s); err != nil {
		t.Fatal(err)
	}
	s, _ = svc.GetSettings()
	if s.SyncSessionToken != "session" || s.SyncRefreshToken != "refresh" {
		t.Errorf("tokens were lost: %+v", s)
	}

	if err := svc.ClearSyncTokens(); err != nil {
		t.Fatal(err)
	}
	s, _ = svc.GetSettings()
	if s.SyncSessionToken != "" || s.SyncRefreshToken != "" {
		t.Errorf("tokens should be cleared: %+v", s)
	}
	if s.InstanceID != id || s.DownloadPrefix != "Mine" {
		t.Errorf("clearing tokens dropped other settings: %+v", s)
	}
}

func TestEnsureInstanceIDIsStable(t *testing.T) {
	withConfigDir(t)
	svc := NewSettingsService()
	first, err := svc.EnsureInstanceID()
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 36 {
		t.Errorf("expected uuid, got %q", first)
	}
	second, err := svc.EnsureInstanceID()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("instance id changed: %q -> %q", first, second)
	}
}

func TestResolveSnapshotDir(t *testing.T) {
	dir := withConfigDir(t)
	got, err := ResolveSnapshotDir(Defaults())
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(dir, "snapshots") {
		t.Errorf("unexpected default snapshot dir %q", got)
	}
	s := Defaults()
	s.SnapshotDir = "/var/lib/shopicsv"
	got, _ = ResolveSnapshotDir(s)
	if got != "/var/lib/shopicsv" {
		t.Errorf("expected configured dir, got %q", got)
	}
}
