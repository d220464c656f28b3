// Package store declares the outbound persistence ports the ledger
// service and worker depend on; concrete adapters live in subpackages.
package store

import (
	"context"

	"tally/internal/core"
)

// Ports for outbound adapters.
type (
	// SnapshotStore persists full ledger snapshots keyed by session.
	// Save replaces whatever was stored for the session; Load returns
	// an empty slice for a session never saved.
	SnapshotStore interface {
		Load(ctx context.Context, sessionID string) ([]core.Transaction, error)
		Save(ctx context.Context, sessionID string, txs []core.Transaction) error
	}

	// TaxonomyReader serves the per-kind category suggestion lists shown
	// by the form UI. Suggestions constrain nothing: any category string
	// is accepted on write.
	TaxonomyReader interface {
		Suggestions(ctx context.Context, kind core.Kind) ([]string, error)
	}

	// SessionLister enumerates sessions with stored snapshots, for
	// batch re-export jobs.
	SessionLister interface {
		ListSessions(ctx context.Context) ([]string, error)
	}
)
