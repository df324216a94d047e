// Package store persists pipeline run snapshots. The ingestion core never
// touches it: storage policy belongs to the CLI layer, which uses snapshots
// so metrics, export and serve work without re-ingesting from Notion.
package store

import (
	"context"

	"github.com/sells-group/crm-funnel-cli/internal/model"
)

// Store defines the snapshot persistence interface.
type Store interface {
	// SaveSnapshot persists a run and its lead corpus, returning the
	// assigned run ID.
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) (string, error)
	// LatestSnapshot returns the most recent run with its leads, or nil
	// when no run has been stored.
	LatestSnapshot(ctx context.Context) (*model.Snapshot, error)
	// ListRuns returns stored runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]model.RunInfo, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
