package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/store/memory"
)

type recordingPublisher struct {
	published []string
	err       error
}

func (p *recordingPublisher) PublishLedgerChanged(_ context.Context, sessionID string, _ int) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, sessionID)
	return nil
}

func sampleTx() core.Transaction {
	return core.Transaction{
		Kind:        core.Income,
		Amount:      decimal.NewFromInt(100),
		Category:    "Sales",
		Description: "invoice",
		Date:        core.NewDate(2026, 3, 1),
	}
}

func TestLoadSessionEmpty(t *testing.T) {
	st := memory.New(nil, nil)
	svc := NewLedgerService(st, st, nil)

	eng, err := svc.LoadSession(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, 0, eng.Len())
}

func TestPersistThenLoadRoundTrip(t *testing.T) {
	st := memory.New(nil, nil)
	svc := NewLedgerService(st, st, nil)
	ctx := context.Background()

	eng := ledger.New()
	_, err := eng.Add(sampleTx())
	require.NoError(t, err)
	require.NoError(t, svc.Persist(ctx, "sess-1", eng))

	restored, err := svc.LoadSession(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, 1, restored.Len())

	got, err := restored.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "invoice", got.Description)
}

func TestPersistPublishesChange(t *testing.T) {
	st := memory.New(nil, nil)
	pub := &recordingPublisher{}
	svc := NewLedgerService(st, st, pub)

	eng := ledger.New()
	_, _ = eng.Add(sampleTx())
	require.NoError(t, svc.Persist(context.Background(), "sess-1", eng))

	assert.Equal(t, []string{"sess-1"}, pub.published)
}

func TestPersistSurvivesPublishFailure(t *testing.T) {
	st := memory.New(nil, nil)
	svc := NewLedgerService(st, st, &recordingPublisher{err: errors.New("broker down")})

	eng := ledger.New()
	_, _ = eng.Add(sampleTx())

	// the save must succeed even when the broker is unreachable
	require.NoError(t, svc.Persist(context.Background(), "sess-1", eng))
	snap, err := st.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Len(t, snap, 1)
}

func TestSuggestions(t *testing.T) {
	st := memory.New([]string{"Sales"}, []string{"Rent", "Travel"})
	svc := NewLedgerService(st, st, nil)

	expense, err := svc.Suggestions(context.Background(), core.Expense)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rent", "Travel"}, expense)
}
