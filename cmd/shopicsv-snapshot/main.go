// Command shopicsv-snapshot inspects and manages the stored editor session
// outside the desktop app.
package main

import (
	"context"
	"os"
	"time"

	"shopicsv/app/settings"
	"shopicsv/app/snapshot"
)

func main() {
	rootCmd := newRootCmd(openFromSettings, os.Stdout, time.Now)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openFromSettings opens the backend the desktop app uses, with the
// --backend and --dir flags taking precedence over the settings file.
func openFromSettings(ctx context.Context, backend, dir string) (snapshot.Backend, error) {
	current := settings.GetEffectiveSettings()
	if backend != "" {
		current.SnapshotBackend = backend
	}
	if dir != "" {
		current.SnapshotDir = dir
	}
	return snapshot.OpenBackend(ctx, current)
}
