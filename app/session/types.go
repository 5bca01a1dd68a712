// Package session owns the open file: it moves between the empty, loading and
// editing states and funnels every save trigger through a single path.
package session

import (
	"context"
	"errors"
	"time"

	"shopicsv/app/rowstore"
	"shopicsv/app/snapshot"
)

// State of the controller
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateEditing
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEditing:
		return "editing"
	default:
		return "empty"
	}
}

var (
	// ErrNoFile is returned by operations that need an open file
	ErrNoFile = errors.New("no file is open")
	// ErrBusy is returned when another operation holds the controller
	ErrBusy = errors.New("another operation is in progress")
)

// Logger interface for session diagnostics
type Logger interface {
	Log(level, message string)
}

// Transport performs the remote write of a whole file
type Transport interface {
	Save(ctx context.Context, token, fileName string, rows []rowstore.Row) error
}

// TokenSource hands out the authorization token for a save
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Confirmer asks the user to confirm a destructive or restoring action
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) (bool, error)
}

// Notifier shows user-facing messages
type Notifier interface {
	Notify(n Notification)
}

// SnapshotStore persists the durable copy of the open file
type SnapshotStore interface {
	Write(ctx context.Context, snap snapshot.Snapshot) error
	Read(ctx context.Context) (*snapshot.Snapshot, error)
	Clear(ctx context.Context) error
}

// ColumnStore persists the chosen display columns
type ColumnStore interface {
	Load(ctx context.Context) ([]int, error)
	Save(ctx context.Context, cols []int) error
}

// Notification severities
const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityError   = "error"
)

// Notification is a user-facing alert
type Notification struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// File is a decoded upload
type File struct {
	Name         string
	Size         int64
	LastModified time.Time
	Records      [][]string
}

// SaveOptions select the messaging of a save. Autosave suppresses the
// "already up to date" notice and keeps failures out of the alerts.
type SaveOptions struct {
	DisplayMsg bool
	Autosave   bool
}

// SaveResult reports what a save did
type SaveResult struct {
	Saved   bool      `json:"saved"`
	Edits   int       `json:"edits"`
	SavedAt time.Time `json:"savedAt"`
}

// Info describes the open file for the toolbar
type Info struct {
	State          string    `json:"state"`
	Name           string    `json:"name"`
	Size           int64     `json:"size"`
	LastModified   time.Time `json:"lastModified"`
	SavedAt        string    `json:"savedAt"`
	DataRows       int       `json:"dataRows"`
	DisplayedCount int       `json:"displayedCount"`
	Columns        []int     `json:"columns"`
}
