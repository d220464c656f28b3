// Package service orchestrates ledger operations across the in-memory
// engine, the snapshot store and the AMQP change feed.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/store"
)

// ChangePublisher is the slice of the AMQP client the service needs.
type ChangePublisher interface {
	PublishLedgerChanged(ctx context.Context, sessionID string, count int) error
}

// LedgerService loads session ledgers from the snapshot store, runs
// mutations through the engine, and persists the result. Persistence is
// the source of truth between requests; the engine is rebuilt per load.
type LedgerService struct {
	snapshots store.SnapshotStore
	taxonomy  store.TaxonomyReader
	publisher ChangePublisher // optional
}

func NewLedgerService(snapshots store.SnapshotStore, taxonomy store.TaxonomyReader, publisher ChangePublisher) *LedgerService {
	return &LedgerService{
		snapshots: snapshots,
		taxonomy:  taxonomy,
		publisher: publisher,
	}
}

// LoadSession rebuilds the engine for a session from its stored snapshot.
// A session with no stored snapshot gets an empty engine.
func (s *LedgerService) LoadSession(ctx context.Context, sessionID string) (*ledger.Engine, error) {
	txs, err := s.snapshots.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	eng := ledger.New()
	if err := eng.LoadSnapshot(txs); err != nil {
		return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
	}
	return eng, nil
}

// Persist saves the engine's snapshot and announces the change. A publish
// failure is logged, not returned: the save is what matters, the export
// worker catches up on its periodic pass.
func (s *LedgerService) Persist(ctx context.Context, sessionID string, eng *ledger.Engine) error {
	snap := eng.ExportSnapshot()
	if err := s.snapshots.Save(ctx, sessionID, snap); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishLedgerChanged(ctx, sessionID, len(snap)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish ledger change",
				"session_id", sessionID, "error", err)
		}
	}

	return nil
}

// Suggestions returns the category suggestion list for a transaction kind.
func (s *LedgerService) Suggestions(ctx context.Context, kind core.Kind) ([]string, error) {
	return s.taxonomy.Suggestions(ctx, kind)
}
