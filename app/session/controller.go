package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"shopicsv/app/editing"
	"shopicsv/app/fileloader"
	"shopicsv/app/rowstore"
	"shopicsv/app/snapshot"
	"shopicsv/app/timestamps"
	"shopicsv/app/view"
)

// Config wires a controller to its collaborators. Store, Registry and Now
// default when nil; a nil Transport or Tokens skips the remote write.
type Config struct {
	Store          *rowstore.Store
	Registry       *editing.Registry
	Snapshots      SnapshotStore
	Columns        ColumnStore
	Transport      Transport
	Tokens         TokenSource
	Confirmer      Confirmer
	Notifier       Notifier
	Logger         Logger
	DownloadPrefix string
	Now            func() time.Time
	// Location renders "saved at" times; nil means time.Local
	Location *time.Location
}

// Controller is the session state machine
type Controller struct {
	store     *rowstore.Store
	registry  *editing.Registry
	snapshots SnapshotStore
	columns   ColumnStore
	transport Transport
	tokens    TokenSource
	confirmer Confirmer
	notifier  Notifier
	logger    Logger
	prefix    string
	now       func() time.Time
	loc       *time.Location
	cache     *view.Cache

	// opMu is held for the whole of every operation; it is the loading gate
	opMu sync.Mutex

	mu           sync.RWMutex
	state        State
	name         string
	size         int64
	lastModified time.Time
	savedAt      string
	filter       view.Filter
	display      []int
	closed       bool
	restoreDone  bool
}

// New creates a controller in the empty state
func New(cfg Config) *Controller {
	c := &Controller{
		store:     cfg.Store,
		registry:  cfg.Registry,
		snapshots: cfg.Snapshots,
		columns:   cfg.Columns,
		transport: cfg.Transport,
		tokens:    cfg.Tokens,
		confirmer: cfg.Confirmer,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
		prefix:    cfg.DownloadPrefix,
		now:       cfg.Now,
		loc:       cfg.Location,
		cache:     view.NewCache(0),
		display:   append([]int(nil), snapshot.DefaultColumns...),
	}
	if c.store == nil {
		c.store = rowstore.New()
	}
	if c.registry == nil {
		c.registry = editing.NewRegistry()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	return c
}

// Startup loads the saved column preference
func (c *Controller) Startup(ctx context.Context) {
	if c.columns == nil {
		return
	}
	cols, err := c.columns.Load(ctx)
	if err != nil {
		c.logf("warning", "[COLUMNS] failed to load column preference: %v", err)
	}
	if cols != nil {
		c.mu.Lock()
		c.display = cols
		c.mu.Unlock()
	}
}

func (c *Controller) logf(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if c.logger != nil {
		c.logger.Log(level, msg)
		return
	}
	log.Printf("%s", msg)
}

func (c *Controller) notify(severity, format string, args ...interface{}) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(Notification{Severity: severity, Message: fmt.Sprintf(format, args...)})
}

// begin takes the operation lock without waiting and enters the loading
// state, returning the state to go back to.
func (c *Controller) begin() (State, bool) {
	if !c.opMu.TryLock() {
		return StateLoading, false
	}
	c.mu.Lock()
	from := c.state
	c.state = StateLoading
	c.mu.Unlock()
	return from, true
}

func (c *Controller) end(to State) {
	c.mu.Lock()
	c.state = to
	c.mu.Unlock()
	c.opMu.Unlock()
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Store returns the authoritative rows
func (c *Controller) Store() *rowstore.Store {
	return c.store
}

// Upload replaces the open file. Unsaved edits of the current file are saved
// first; a failure of that save is logged and does not stop the upload.
func (c *Controller) Upload(ctx context.Context, f File) error {
	from, ok := c.begin()
	if !ok {
		return ErrBusy
	}
	to := from
	defer func() { c.end(to) }()

	if len(f.Records) == 0 {
		return fmt.Errorf("%s is empty", f.Name)
	}

	if from == StateEditing {
		if _, err := c.saveLocked(ctx, SaveOptions{DisplayMsg: true, Autosave: true}); err != nil {
			c.logf("warning", "[UPLOAD] failed to save %s before replacing it: %v", c.name, err)
		}
	}

	c.store.ReplaceAll(rowstore.FromRecords(f.Records))
	c.registry.Clear()
	c.cache.Invalidate()
	c.mu.Lock()
	c.name = f.Name
	c.size = f.Size
	c.lastModified = f.LastModified
	c.savedAt = ""
	c.filter = view.Filter{}
	c.mu.Unlock()
	to = StateEditing

	c.logf("info", "[UPLOAD] loaded %s (%d rows)", f.Name, c.store.Len())
	if _, err := c.writeSnapshot(ctx, c.store.Rows()); err != nil {
		c.notify(SeverityError, "The file is open but a local copy could not be stored: %v", err)
		return err
	}
	c.notify(SeveritySuccess, "File uploaded")
	return nil
}

// Save reconciles the live field values into the store and persists the
// result remotely and locally.
func (c *Controller) Save(ctx context.Context, opts SaveOptions) (SaveResult, error) {
	from, ok := c.begin()
	if !ok {
		return SaveResult{}, ErrBusy
	}
	defer func() { c.end(from) }()

	if from != StateEditing {
		return SaveResult{}, ErrNoFile
	}
	res, err := c.saveLocked(ctx, opts)
	if err != nil {
		c.reportSaveError(opts, err)
	}
	return res, err
}

// saveLocked is the single save path. Edits are applied to a staged copy
// that is sent remotely and then written to the snapshot. The store takes the
// edits last, so a failed write leaves them dirty for the next save.
func (c *Controller) saveLocked(ctx context.Context, opts SaveOptions) (SaveResult, error) {
	edits, found := editing.ComputeEdits(c.registry, c.store, c.logger)
	if !found {
		if opts.DisplayMsg && !opts.Autosave {
			c.notify(SeverityInfo, "Already up to date")
		}
		return SaveResult{}, nil
	}

	var token string
	if c.tokens != nil {
		var err error
		token, err = c.tokens.AccessToken(ctx)
		if err != nil {
			return SaveResult{}, fmt.Errorf("failed to authorize save: %w", err)
		}
	}

	staged := c.store.Clone()
	if err := editing.ApplyEdits(edits, staged); err != nil {
		return SaveResult{}, err
	}

	c.mu.RLock()
	name := c.name
	c.mu.RUnlock()

	if c.transport != nil {
		if err := c.transport.Save(ctx, token, name, staged.Rows()); err != nil {
			return SaveResult{}, fmt.Errorf("failed to save %s: %w", name, err)
		}
	}

	savedAt, err := c.writeSnapshot(ctx, staged.Rows())
	if err != nil {
		return SaveResult{}, fmt.Errorf("failed to store a local copy of %s: %w", name, err)
	}
	if err := editing.ApplyEdits(edits, c.store); err != nil {
		return SaveResult{}, err
	}

	c.logf("info", "[SAVE] saved %d edit(s) to %s", len(edits), name)
	if opts.DisplayMsg {
		c.notify(SeveritySuccess, "File saved")
	}
	return SaveResult{Saved: true, Edits: len(edits), SavedAt: savedAt}, nil
}

func (c *Controller) reportSaveError(opts SaveOptions, err error) {
	if opts.Autosave {
		c.logf("warning", "[AUTOSAVE] save failed: %v", err)
		return
	}
	c.logf("error", "[SAVE] save failed: %v", err)
	c.notify(SeverityError, "Save failed: %v", err)
}

// writeSnapshot stores rows and the file meta under a fresh timestamp
func (c *Controller) writeSnapshot(ctx context.Context, rows []rowstore.Row) (time.Time, error) {
	now := c.now()
	if c.snapshots == nil {
		return now, nil
	}
	c.mu.RLock()
	snap := snapshot.Snapshot{
		Content:       rows,
		Name:          c.name,
		Size:          c.size,
		SavedAt:       timestamps.FormatLocale(now.In(c.loc)),
		SavedAtMillis: now.UnixMilli(),
	}
	if !c.lastModified.IsZero() {
		snap.LastModified = c.lastModified.UnixMilli()
	}
	c.mu.RUnlock()

	if err := c.snapshots.Write(ctx, snap); err != nil {
		return time.Time{}, err
	}
	c.mu.Lock()
	c.savedAt = snap.SavedAt
	c.mu.Unlock()
	return now, nil
}

// Close clears the open file. With deleteSnapshot a file must be open, the
// user must confirm and the stored copy is removed as well; a declined
// confirmation changes nothing.
func (c *Controller) Close(ctx context.Context, deleteSnapshot bool) (bool, error) {
	from, ok := c.begin()
	if !ok {
		return false, ErrBusy
	}
	to := from
	defer func() { c.end(to) }()

	if deleteSnapshot {
		if from != StateEditing {
			return false, ErrNoFile
		}
		if c.confirmer == nil {
			return false, errors.New("no confirmation gate is configured")
		}
		confirmed, err := c.confirmer.Confirm(ctx, "Close file",
			"Close this file and delete its saved copy? Unsaved edits will be lost.")
		if err != nil {
			return false, fmt.Errorf("failed to confirm close: %w", err)
		}
		if !confirmed {
			return false, nil
		}
		if c.snapshots != nil {
			if err := c.snapshots.Clear(ctx); err != nil {
				return false, err
			}
		}
	}

	c.resetLocked()
	to = StateEmpty
	c.logf("info", "[CLOSE] closed file (snapshot deleted: %v)", deleteSnapshot)
	return true, nil
}

// resetLocked drops the file and all UI state and marks the run as closed
func (c *Controller) resetLocked() {
	c.store.Clear()
	c.registry.Clear()
	c.cache.Invalidate()
	c.mu.Lock()
	c.name = ""
	c.size = 0
	c.lastModified = time.Time{}
	c.savedAt = ""
	c.filter = view.Filter{}
	c.closed = true
	c.mu.Unlock()
}

// DownloadName is the file name a download of the open file gets
func (c *Controller) DownloadName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fileloader.DownloadName(c.prefix, c.name)
}

// Download saves, writes the file as CSV to w and closes it without
// deleting the snapshot. It returns the download name.
func (c *Controller) Download(ctx context.Context, w io.Writer) (string, error) {
	from, ok := c.begin()
	if !ok {
		return "", ErrBusy
	}
	to := from
	defer func() { c.end(to) }()

	if from != StateEditing {
		return "", ErrNoFile
	}
	opts := SaveOptions{}
	if _, err := c.saveLocked(ctx, opts); err != nil {
		c.reportSaveError(opts, err)
		return "", err
	}

	name := c.DownloadName()
	if err := fileloader.WriteCSV(w, c.store.Records()); err != nil {
		c.notify(SeverityError, "Download failed: %v", err)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	c.notify(SeveritySuccess, "Downloaded %s", name)

	c.resetLocked()
	to = StateEmpty
	c.logf("info", "[DOWNLOAD] wrote %s", name)
	return name, nil
}

// Restore offers the stored snapshot once per run. It does nothing after the
// user closed a file, when a file is already open or when no confirmation
// gate is configured. A corrupt snapshot, a
// declined offer or a failed confirmation clears the snapshot.
func (c *Controller) Restore(ctx context.Context) (bool, error) {
	from, ok := c.begin()
	if !ok {
		return false, ErrBusy
	}
	to := from
	defer func() { c.end(to) }()

	c.mu.Lock()
	skip := c.restoreDone || c.closed || from != StateEmpty
	c.restoreDone = true
	c.mu.Unlock()
	if skip || c.snapshots == nil || c.confirmer == nil {
		return false, nil
	}

	snap, err := c.snapshots.Read(ctx)
	if err != nil {
		if errors.Is(err, snapshot.ErrCorrupt) {
			c.logf("warning", "[RESTORE] discarding unreadable snapshot: %v", err)
			c.clearSnapshot(ctx)
			return false, nil
		}
		return false, err
	}
	if snap == nil {
		return false, nil
	}
	if len(snap.Content) == 0 {
		c.logf("warning", "[RESTORE] discarding empty snapshot of %s", snap.Name)
		c.clearSnapshot(ctx)
		return false, nil
	}

	confirmed, err := c.confirmer.Confirm(ctx, "Restore session", c.restorePrompt(snap))
	if err != nil {
		c.logf("warning", "[RESTORE] confirmation failed: %v", err)
	}
	if !confirmed {
		c.clearSnapshot(ctx)
		return false, nil
	}

	c.store.ReplaceAll(snap.Content)
	c.registry.Clear()
	c.cache.Invalidate()
	c.mu.Lock()
	c.name = snap.Name
	c.size = snap.Size
	c.lastModified = time.Time{}
	if snap.LastModified > 0 {
		c.lastModified = time.UnixMilli(snap.LastModified)
	}
	c.savedAt = snap.SavedAt
	c.filter = view.Filter{}
	c.mu.Unlock()
	to = StateEditing

	c.logf("info", "[RESTORE] restored %s saved at %s", snap.Name, snap.SavedAt)
	c.notify(SeveritySuccess, "Restored the session saved at %s", snap.SavedAt)
	return true, nil
}

func (c *Controller) restorePrompt(snap *snapshot.Snapshot) string {
	var at time.Time
	ok := false
	if snap.SavedAtMillis > 0 {
		at, ok = time.UnixMilli(snap.SavedAtMillis), true
	} else {
		at, ok = timestamps.ParseLocale(snap.SavedAt, c.loc)
	}
	if !ok {
		return fmt.Sprintf("You have an unsaved session for %s. Do you want to restore it?", snap.Name)
	}
	return fmt.Sprintf("You have a session for %s saved %s. Do you want to restore it?",
		snap.Name, timestamps.Ago(at, c.now()))
}

func (c *Controller) clearSnapshot(ctx context.Context) {
	if err := c.snapshots.Clear(ctx); err != nil {
		c.logf("warning", "[RESTORE] failed to clear snapshot: %v", err)
	}
}

// DisplayColumns returns the visible column indexes
func (c *Controller) DisplayColumns() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]int(nil), c.display...)
}

// SetDisplayColumns changes the visible columns. Hiding a column saves
// first so edits in it are not lost.
func (c *Controller) SetDisplayColumns(ctx context.Context, cols []int) ([]int, error) {
	from, ok := c.begin()
	if !ok {
		return c.DisplayColumns(), ErrBusy
	}
	defer func() { c.end(from) }()

	next := snapshot.NormalizeColumns(cols)
	current := c.DisplayColumns()
	if from == StateEditing && len(next) < len(current) {
		opts := SaveOptions{}
		if _, err := c.saveLocked(ctx, opts); err != nil {
			c.reportSaveError(opts, err)
			return current, err
		}
	}

	c.mu.Lock()
	c.display = next
	c.mu.Unlock()
	if c.columns != nil {
		if err := c.columns.Save(ctx, next); err != nil {
			c.logf("warning", "[COLUMNS] failed to store column preference: %v", err)
		}
	}
	return append([]int(nil), next...), nil
}

// RegisterField records a rendered field and its current value
func (c *Controller) RegisterField(id editing.CellID, value string) {
	c.registry.Register(editing.NewBufferedFieldWithValue(id, value))
}

// UpdateField records the latest value typed into a field
func (c *Controller) UpdateField(id editing.CellID, value string) {
	if h, ok := c.registry.Lookup(id); ok {
		if f, ok := h.(*editing.BufferedField); ok {
			f.SetValue(value)
			return
		}
	}
	c.registry.Register(editing.NewBufferedFieldWithValue(id, value))
}

// UnregisterField drops a field that is no longer rendered
func (c *Controller) UnregisterField(id editing.CellID) {
	c.registry.Unregister(id)
}

// ClearFields drops every rendered field (page change)
func (c *Controller) ClearFields() {
	c.registry.Clear()
}

// Registry returns the live field registry
func (c *Controller) Registry() *editing.Registry {
	return c.registry
}

// Dirty reports whether any rendered field differs from the store
func (c *Controller) Dirty() bool {
	if c.State() == StateEmpty {
		return false
	}
	_, found := editing.ComputeEdits(c.registry, c.store, nil)
	return found
}
