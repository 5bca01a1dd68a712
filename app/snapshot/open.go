package snapshot

import (
	"context"
	"fmt"

	"shopicsv/app/settings"
)

// OpenBackend creates the backend selected in settings
func OpenBackend(ctx context.Context, s settings.Settings) (Backend, error) {
	switch s.SnapshotBackend {
	case settings.BackendMemory:
		return NewMemoryBackend(), nil
	case settings.BackendDynamoDB:
		return NewDynamoBackend(ctx, s.DynamoDBTable, s.InstanceID)
	case settings.BackendFile, "":
		dir, err := settings.ResolveSnapshotDir(s)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve snapshot directory: %w", err)
		}
		return NewFileBackend(dir)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", s.SnapshotBackend)
	}
}
