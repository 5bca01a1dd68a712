package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"shopicsv/app/rowstore"
)

// DefaultColumns are shown when no preference was saved: field, default content, translated content
var DefaultColumns = []int{rowstore.ColField, rowstore.ColDefaultContent, rowstore.ColTranslatedContent}

// ColumnPrefs persists the user's displayed column indexes under their own key
type ColumnPrefs struct {
	backend Backend
}

// NewColumnPrefs creates column preferences on top of a backend
func NewColumnPrefs(backend Backend) *ColumnPrefs {
	return &ColumnPrefs{backend: backend}
}

// Load returns the saved columns, or DefaultColumns when none (or garbage) is stored
func (c *ColumnPrefs) Load(ctx context.Context) ([]int, error) {
	data, found, err := c.backend.Get(ctx, ColumnsKey)
	if err != nil {
		return defaultColumns(), fmt.Errorf("failed to read column preferences: %w", err)
	}
	if !found {
		return defaultColumns(), nil
	}
	var cols []int
	if err := json.Unmarshal(data, &cols); err != nil {
		return defaultColumns(), nil
	}
	return NormalizeColumns(cols), nil
}

// Save stores the columns, replacing the previous value
func (c *ColumnPrefs) Save(ctx context.Context, cols []int) error {
	data, err := json.Marshal(NormalizeColumns(cols))
	if err != nil {
		return err
	}
	if err := c.backend.Remove(ctx, ColumnsKey); err != nil {
		return fmt.Errorf("failed to remove column preferences: %w", err)
	}
	if err := c.backend.Set(ctx, ColumnsKey, data); err != nil {
		return fmt.Errorf("failed to write column preferences: %w", err)
	}
	return nil
}

// NormalizeColumns drops out-of-range and duplicate indexes, keeping order
func NormalizeColumns(cols []int) []int {
	seen := make(map[int]struct{}, len(cols))
	out := make([]int, 0, len(cols))
	for _, c := range cols {
		if c < 0 || c >= rowstore.ColumnCount {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func defaultColumns() []int {
	return append([]int(nil), DefaultColumns...)
}
