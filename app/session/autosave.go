package session

import (
	"context"
	"time"
)

// DefaultAutosaveInterval matches the editor's three minute autosave
const DefaultAutosaveInterval = 180 * time.Second

// Autosave runs one autosave pass. It is skipped when no file is open or
// when another operation holds the controller, so it never queues behind a
// running save or upload.
func (c *Controller) Autosave(ctx context.Context) (SaveResult, error) {
	from, ok := c.begin()
	if !ok {
		c.logf("debug", "[AUTOSAVE] skipped, another operation is running")
		return SaveResult{}, nil
	}
	defer func() { c.end(from) }()

	if from != StateEditing {
		return SaveResult{}, nil
	}
	opts := SaveOptions{DisplayMsg: true, Autosave: true}
	res, err := c.saveLocked(ctx, opts)
	if err != nil {
		c.reportSaveError(opts, err)
	}
	return res, err
}

// RunAutosave calls Autosave every interval until ctx is done
func (c *Controller) RunAutosave(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logf("debug", "[AUTOSAVE] running every %s", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Autosave(ctx)
		}
	}
}
