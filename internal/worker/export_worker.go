// Package worker runs the background export job: on every ledger change
// notification it re-exports the session's snapshot to a CSV file and,
// when configured, a Google Sheets tab.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/store"
)

// SheetExporter mirrors a snapshot into an external spreadsheet.
type SheetExporter interface {
	Export(ctx context.Context, sessionID string, txs []core.Transaction) error
}

// ExportWorker re-exports session ledgers on change notifications.
type ExportWorker struct {
	snapshots store.SnapshotStore
	sessions  store.SessionLister
	sheets    SheetExporter // optional
	exportDir string
}

func NewExportWorker(snapshots store.SnapshotStore, sessions store.SessionLister, sheets SheetExporter, exportDir string) *ExportWorker {
	return &ExportWorker{
		snapshots: snapshots,
		sessions:  sessions,
		sheets:    sheets,
		exportDir: exportDir,
	}
}

// HandleChange processes a single ledger change message: it loads the
// session's current snapshot and rewrites its export file.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"session_id", msg.SessionID,
		"count", msg.Count)

	return w.exportSession(ctx, msg.SessionID)
}

// ExportAll re-exports every session with a stored snapshot. Used at
// startup and on a timer to recover from missed messages.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	ids, err := w.sessions.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Re-exporting all sessions", "count", len(ids))

	errorCount := 0
	for _, id := range ids {
		if err := w.exportSession(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to export session", "session_id", id, "error", err)
			errorCount++
		}
	}
	if errorCount > 0 {
		return fmt.Errorf("%d of %d sessions failed to export", errorCount, len(ids))
	}
	return nil
}

func (w *ExportWorker) exportSession(ctx context.Context, sessionID string) error {
	txs, err := w.snapshots.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	if err := w.writeCSV(sessionID, txs); err != nil {
		return fmt.Errorf("write CSV export: %w", err)
	}

	if w.sheets != nil {
		if err := w.sheets.Export(ctx, sessionID, txs); err != nil {
			return fmt.Errorf("export to sheets: %w", err)
		}
	}

	slog.InfoContext(ctx, "Session exported",
		"session_id", sessionID,
		"records", len(txs),
		"sheets", w.sheets != nil)

	return nil
}

func (w *ExportWorker) writeCSV(sessionID string, txs []core.Transaction) error {
	if err := os.MkdirAll(w.exportDir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(w.exportDir, sessionID+".csv")
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}

	if err := export.Write(f, txs); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close export file: %w", err)
	}
	// rename so readers never see a half-written file
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace export file: %w", err)
	}
	return nil
}
