package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"shopicsv/app/rowstore"
	"shopicsv/app/session"
	"shopicsv/app/settings"
	"shopicsv/app/snapshot"
	shopsync "shopicsv/app/sync"
	"shopicsv/app/timestamps"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// App struct
type App struct {
	ctx context.Context

	settings *settings.SettingsService
	session  *session.Controller
	client   *shopsync.Client

	// clipboard init
	clipOnce sync.Once
	clipOK   bool

	// autosave loop cancellation
	autosaveMu     sync.Mutex
	autosaveCancel context.CancelFunc
}

// NewApp creates a new App application struct
func NewApp(svc *settings.SettingsService) *App {
	return &App{settings: svc}
}

// Startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	current := settings.GetEffectiveSettings()
	backend, err := snapshot.OpenBackend(ctx, current)
	if err != nil {
		a.Log("error", fmt.Sprintf("[SNAPSHOT] %v, keeping the session in memory", err))
		backend = snapshot.NewMemoryBackend()
	}

	var transport session.Transport = shopsync.Offline{}
	var tokens session.TokenSource = shopsync.Offline{}
	if current.SyncBaseURL != "" {
		a.client = shopsync.NewClient(current.SyncBaseURL, shopsync.NewSettingsTokenStore(a.settings), a)
		transport, tokens = a.client, a.client
	} else {
		a.Log("info", "[SYNC] no sync_base_url configured, saving locally only")
	}

	loc, err := timestamps.LoadLocation(current.DisplayTimezone)
	if err != nil {
		a.Log("warning", fmt.Sprintf("[SETTINGS] %v, using local time", err))
		loc = time.Local
	}

	a.session = session.New(session.Config{
		Store:          rowstore.New(),
		Snapshots:      snapshot.NewStore(backend),
		Columns:        snapshot.NewColumnPrefs(backend),
		Transport:      transport,
		Tokens:         tokens,
		Confirmer:      dialogs{a},
		Notifier:       dialogs{a},
		Logger:         a,
		DownloadPrefix: current.DownloadPrefix,
		Location:       loc,
	})
	a.session.Startup(ctx)
	a.startAutosave(time.Duration(current.AutosaveIntervalMs) * time.Millisecond)
}

// Shutdown stops the autosave loop and runs a last silent save
func (a *App) Shutdown(ctx context.Context) {
	a.stopAutosave()
	if a.session == nil {
		return
	}
	if _, err := a.session.Autosave(ctx); err != nil {
		log.Printf("[SHUTDOWN] final save failed: %v", err)
	}
}

// Ctx returns the app context
func (a *App) Ctx() context.Context {
	return a.ctx
}

// Session returns the session controller
func (a *App) Session() *session.Controller {
	return a.session
}

// Log emits a structured log event to the frontend console window
func (a *App) Log(level, message string) {
	if a == nil || a.ctx == nil {
		log.Printf("[%s] %s", level, message)
		return
	}
	runtime.EventsEmit(a.ctx, "log", map[string]any{
		"level":   level,
		"message": message,
	})
}

// dialogs connects the session to the frontend alerts and native dialogs.
// It is kept off App so the methods are not bound to the frontend.
type dialogs struct {
	a *App
}

// Notify shows an alert in the frontend
func (d dialogs) Notify(n session.Notification) {
	a := d.a
	if a.ctx == nil {
		log.Printf("[ALERT] %s: %s", n.Severity, n.Message)
		return
	}
	runtime.EventsEmit(a.ctx, "alert", n)
}

// Confirm asks a yes/no question with a native dialog
func (d dialogs) Confirm(_ context.Context, title, message string) (bool, error) {
	a := d.a
	if a.ctx == nil {
		return false, fmt.Errorf("app not initialised")
	}
	answer, err := runtime.MessageDialog(a.ctx, runtime.MessageDialogOptions{
		Type:          runtime.QuestionDialog,
		Title:         title,
		Message:       message,
		Buttons:       []string{"Yes", "No"},
		DefaultButton: "No",
		CancelButton:  "No",
	})
	if err != nil {
		return false, err
	}
	return answer == "Yes", nil
}

// SettingsChanged restarts the autosave loop when its interval changed
func (a *App) SettingsChanged(old, updated settings.Settings) {
	if old.AutosaveIntervalMs != updated.AutosaveIntervalMs {
		a.Log("info", fmt.Sprintf("[AUTOSAVE] interval changed to %dms", updated.AutosaveIntervalMs))
		a.startAutosave(time.Duration(updated.AutosaveIntervalMs) * time.Millisecond)
	}
	if old.SyncBaseURL != updated.SyncBaseURL || old.SnapshotBackend != updated.SnapshotBackend || old.DownloadPrefix != updated.DownloadPrefix ||
		old.DisplayTimezone != updated.DisplayTimezone {
		a.Log("info", "[SETTINGS] sync, snapshot, download and timezone changes apply after a restart")
	}
}

func (a *App) startAutosave(interval time.Duration) {
	a.stopAutosave()
	if a.ctx == nil || a.session == nil {
		return
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.autosaveMu.Lock()
	a.autosaveCancel = cancel
	a.autosaveMu.Unlock()
	go a.session.RunAutosave(ctx, interval)
}

func (a *App) stopAutosave() {
	a.autosaveMu.Lock()
	defer a.autosaveMu.Unlock()
	if a.autosaveCancel != nil {
		a.autosaveCancel()
		a.autosaveCancel = nil
	}
}

// IsLoggedIn reports whether save tokens are stored
func (a *App) IsLoggedIn() bool {
	return a.client != nil && a.client.IsLoggedIn()
}

// SaveWindowSize saves the current window dimensions to the settings file
func (a *App) SaveWindowSize(width, height int) error {
	if width < 400 || height < 300 {
		return fmt.Errorf("window size too small: minimum 400x300, got %dx%d", width, height)
	}
	current := settings.GetEffectiveSettings()
	current.WindowWidth = width
	current.WindowHeight = height
	return a.settings.SaveSettings(current)
}

// GetSavedWindowSize returns the saved window dimensions from settings
func (a *App) GetSavedWindowSize() (width, height int, err error) {
	current := settings.GetEffectiveSettings()
	defaults := settings.Defaults()

	width = current.WindowWidth
	height = current.WindowHeight
	if width < 400 {
		width = defaults.WindowWidth
	}
	if height < 300 {
		height = defaults.WindowHeight
	}
	return width, height, nil
}

// GetInstanceID returns a unique identifier for this application instance
func (a *App) GetInstanceID() (string, error) {
	current := settings.GetEffectiveSettings()
	if current.InstanceID == "" {
		return "", fmt.Errorf("instance ID not found in settings")
	}
	return current.InstanceID, nil
}
