package snapshot

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"shopicsv/app/rowstore"

	"github.com/minio/highwayhash"
)

// Keys of the durable store
const (
	FileDataKey = "fileData"
	ColumnsKey  = "columns"
)

// ErrCorrupt is returned by Read when the stored record cannot be trusted
var ErrCorrupt = errors.New("snapshot is corrupt")

// checksumKey is the fixed HighwayHash key for content checksums
var checksumKey = []byte("shopicsv-snapshot-checksum-key!!")

// Snapshot is the last saved state of the open file plus its metadata
type Snapshot struct {
	Content []rowstore.Row `json:"content"`
	Name    string         `json:"name"`
	Size    int64          `json:"size"`
	// LastModified is the source file's modification time in epoch milliseconds
	LastModified int64 `json:"lastModified"`
	// SavedAt is a locale formatted time, see timestamps.LocaleLayout
	SavedAt       string `json:"savedAt"`
	SavedAtMillis int64  `json:"savedAtMs,omitempty"`
	Checksum      string `json:"checksum,omitempty"`
}

// Checksum returns the HighwayHash-256 of the JSON encoded content
func Checksum(content []rowstore.Row) (string, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return "", err
	}
	sum := highwayhash.Sum(data, checksumKey)
	return hex.EncodeToString(sum[:]), nil
}

// Store reads and writes the single snapshot record
type Store struct {
	backend Backend
	key     string
}

// NewStore creates a snapshot store on top of a backend
func NewStore(backend Backend) *Store {
	return &Store{backend: backend, key: FileDataKey}
}

// Backend returns the underlying key-value backend
func (s *Store) Backend() Backend {
	return s.backend
}

// Write replaces the stored snapshot. The previous record is removed first
// so no field of an older snapshot can survive into the new one.
func (s *Store) Write(ctx context.Context, snap Snapshot) error {
	sum, err := Checksum(snap.Content)
	if err != nil {
		return fmt.Errorf("failed to checksum snapshot: %w", err)
	}
	snap.Checksum = sum
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.backend.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("failed to remove previous snapshot: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Read returns the stored snapshot, nil when there is none, or an error
// wrapping ErrCorrupt when the record is malformed or fails its checksum.
func (s *Store) Read(ctx context.Context) (*Snapshot, error) {
	data, found, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if !found {
		return nil, nil
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Clear deletes the stored snapshot
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}

// Decode parses and validates a stored record
func Decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if snap.Content == nil {
		return nil, fmt.Errorf("%w: missing content", ErrCorrupt)
	}
	for i, r := range snap.Content {
		if r.ID != i {
			return nil, fmt.Errorf("%w: row %d has id %d", ErrCorrupt, i, r.ID)
		}
	}
	if snap.Checksum != "" {
		sum, err := Checksum(snap.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if sum != snap.Checksum {
			return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
		}
	}
	return &snap, nil
}
