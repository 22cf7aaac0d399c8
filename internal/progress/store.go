// Package progress persists the cross-run evaluation state.
package progress

import (
	"context"

	"github.com/casawatch/triage-cli/internal/model"
)

// Store is the persistence interface for evaluation progress. The progress
// record is stored as one atomic document; seen IDs are a separate set fed
// by the intake exclusion filter.
type Store interface {
	LoadProgress(ctx context.Context) (*model.ProgressRecord, error)
	SaveProgress(ctx context.Context, rec *model.ProgressRecord) error

	LoadSeen(ctx context.Context) (map[string]bool, error)
	AddSeen(ctx context.Context, ids []string) error

	Migrate(ctx context.Context) error
	Close() error
}
