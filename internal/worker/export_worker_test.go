package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/export"
)

type stubStore struct {
	snapshots map[string][]core.Transaction
	loadErr   error
}

func (s *stubStore) Load(_ context.Context, sessionID string) ([]core.Transaction, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.snapshots[sessionID], nil
}

func (s *stubStore) Save(_ context.Context, sessionID string, txs []core.Transaction) error {
	s.snapshots[sessionID] = txs
	return nil
}

func (s *stubStore) ListSessions(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}
	return ids, nil
}

type stubSheets struct {
	exported map[string]int
	err      error
}

func (s *stubSheets) Export(_ context.Context, sessionID string, txs []core.Transaction) error {
	if s.err != nil {
		return s.err
	}
	if s.exported == nil {
		s.exported = make(map[string]int)
	}
	s.exported[sessionID] = len(txs)
	return nil
}

func sampleSnapshot() []core.Transaction {
	return []core.Transaction{{
		Kind:        core.Income,
		Amount:      decimal.NewFromInt(100),
		Category:    "Sales",
		Description: "invoice",
		Date:        core.NewDate(2026, 3, 1),
	}, {
		Kind:        core.Expense,
		Amount:      decimal.RequireFromString("19.90"),
		Category:    "Office",
		Description: "toner",
		Date:        core.NewDate(2026, 3, 2),
	}}
}

func TestHandleChangeWritesCSV(t *testing.T) {
	dir := t.TempDir()
	st := &stubStore{snapshots: map[string][]core.Transaction{"sess-1": sampleSnapshot()}}
	w := NewExportWorker(st, st, nil, dir)

	msg := amqp.NewLedgerChangedMessage("sess-1", 2)
	require.NoError(t, w.HandleChange(context.Background(), msg))

	f, err := os.Open(filepath.Join(dir, "sess-1.csv"))
	require.NoError(t, err)
	defer f.Close()

	txs, err := export.Read(f)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "invoice", txs[0].Description)
	assert.Equal(t, "toner", txs[1].Description)
}

func TestHandleChangeForwardsToSheets(t *testing.T) {
	st := &stubStore{snapshots: map[string][]core.Transaction{"sess-1": sampleSnapshot()}}
	sheets := &stubSheets{}
	w := NewExportWorker(st, st, sheets, t.TempDir())

	require.NoError(t, w.HandleChange(context.Background(), amqp.NewLedgerChangedMessage("sess-1", 2)))
	assert.Equal(t, 2, sheets.exported["sess-1"])
}

func TestHandleChangePropagatesErrors(t *testing.T) {
	st := &stubStore{loadErr: errors.New("store down")}
	w := NewExportWorker(st, st, nil, t.TempDir())

	err := w.HandleChange(context.Background(), amqp.NewLedgerChangedMessage("sess-1", 0))
	assert.ErrorContains(t, err, "store down")
}

func TestHandleChangeSheetsFailureIsAnError(t *testing.T) {
	st := &stubStore{snapshots: map[string][]core.Transaction{"sess-1": sampleSnapshot()}}
	w := NewExportWorker(st, st, &stubSheets{err: errors.New("quota exceeded")}, t.TempDir())

	err := w.HandleChange(context.Background(), amqp.NewLedgerChangedMessage("sess-1", 2))
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestExportAll(t *testing.T) {
	dir := t.TempDir()
	st := &stubStore{snapshots: map[string][]core.Transaction{
		"a": sampleSnapshot(),
		"b": nil,
	}}
	w := NewExportWorker(st, st, nil, dir)

	require.NoError(t, w.ExportAll(context.Background()))

	for _, id := range []string{"a", "b"} {
		if _, err := os.Stat(filepath.Join(dir, id+".csv")); err != nil {
			t.Errorf("expected export file for session %s: %v", id, err)
		}
	}
}
