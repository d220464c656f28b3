package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/core"
)

func tx(kind core.Kind, amount string, category, description string, date core.Date) core.Transaction {
	return core.Transaction{
		Kind:        kind,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Description: description,
		Date:        date,
	}
}

func d(y int, m time.Month, day int) core.Date {
	return core.NewDate(y, m, day)
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	e := New()

	id1, err := e.Add(tx(core.Income, "100", "Sales", "first", d(2026, 3, 1)))
	require.NoError(t, err)
	id2, err := e.Add(tx(core.Expense, "40", "Office", "second", d(2026, 3, 2)))
	require.NoError(t, err)

	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)
	assert.Equal(t, 2, e.Len())
}

func TestAddRejectsInvalidWithoutMutating(t *testing.T) {
	e := New()
	_, err := e.Add(tx(core.Income, "100", "Sales", "ok", d(2026, 3, 1)))
	require.NoError(t, err)

	bad := tx(core.Expense, "1", "Office", "", d(2026, 3, 2))
	_, err = e.Add(bad)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "description", verr.Field)
	assert.Equal(t, 1, e.Len())
}

func TestAddRejectsZeroAmount(t *testing.T) {
	e := New()
	bad := core.Transaction{
		Kind:        core.Expense,
		Amount:      decimal.Zero,
		Category:    "Office",
		Description: "paper",
		Date:        d(2026, 3, 1),
	}
	_, err := e.Add(bad)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)
	assert.Equal(t, 0, e.Len())
}

func TestAddDefaultsDateToToday(t *testing.T) {
	e := New()
	id, err := e.Add(core.Transaction{
		Kind:        core.Income,
		Amount:      decimal.NewFromInt(5),
		Category:    "Sales",
		Description: "walk-in",
	})
	require.NoError(t, err)

	got, err := e.Get(id)
	require.NoError(t, err)
	assert.True(t, got.Date.Equal(core.Today().Time))
}

func TestUpdateReplacesWholeRecord(t *testing.T) {
	e := New()
	id, err := e.Add(tx(core.Income, "100", "Sales", "draft", d(2026, 3, 1)))
	require.NoError(t, err)

	replacement := tx(core.Expense, "25.50", "Travel", "train ticket", d(2026, 3, 3))
	replacement.Notes = "refundable"
	require.NoError(t, e.Update(id, replacement))

	got, err := e.Get(id)
	require.NoError(t, err)
	assert.Equal(t, core.Expense, got.Kind)
	assert.Equal(t, "Travel", got.Category)
	assert.Equal(t, "refundable", got.Notes)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("25.50")))
}

func TestUpdateValidatesReplacement(t *testing.T) {
	e := New()
	id, err := e.Add(tx(core.Income, "100", "Sales", "draft", d(2026, 3, 1)))
	require.NoError(t, err)

	err = e.Update(id, tx(core.Income, "100", "Sales", "", d(2026, 3, 1)))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)

	got, _ := e.Get(id)
	assert.Equal(t, "draft", got.Description)
}

func TestMissingIDReturnsNotFound(t *testing.T) {
	e := New()
	valid := tx(core.Income, "1", "Sales", "x", d(2026, 3, 1))

	var nf *NotFoundError
	_, err := e.Get(99)
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(99), nf.ID)

	assert.ErrorAs(t, e.Update(99, valid), &nf)
	assert.ErrorAs(t, e.Delete(99), &nf)
	assert.EqualError(t, err, "transaction 99 not found")
}

func TestDeletePreservesOtherIdentities(t *testing.T) {
	e := New()
	id1, _ := e.Add(tx(core.Income, "10", "Sales", "a", d(2026, 3, 1)))
	id2, _ := e.Add(tx(core.Income, "20", "Sales", "b", d(2026, 3, 2)))
	id3, _ := e.Add(tx(core.Income, "30", "Sales", "c", d(2026, 3, 3)))

	require.NoError(t, e.Delete(id2))

	got1, err := e.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, "a", got1.Description)

	got3, err := e.Get(id3)
	require.NoError(t, err)
	assert.Equal(t, "c", got3.Description)

	var nf *NotFoundError
	assert.True(t, errors.As(e.Delete(id2), &nf))

	// freed identity is never reissued
	id4, err := e.Add(tx(core.Income, "40", "Sales", "d", d(2026, 3, 4)))
	require.NoError(t, err)
	assert.Equal(t, int64(4), id4)
}

func TestSummaryIsOrderInvariant(t *testing.T) {
	records := []core.Transaction{
		tx(core.Income, "100.10", "Sales", "a", d(2026, 1, 5)),
		tx(core.Expense, "60.25", "Rent", "b", d(2026, 1, 6)),
		tx(core.Income, "70", "Services", "c", d(2026, 1, 7)),
		tx(core.Expense, "9.85", "Office", "d", d(2026, 1, 8)),
	}

	forward := New()
	for _, r := range records {
		_, err := forward.Add(r)
		require.NoError(t, err)
	}
	backward := New()
	for i := len(records) - 1; i >= 0; i-- {
		_, err := backward.Add(records[i])
		require.NoError(t, err)
	}

	f, b := forward.Summary(), backward.Summary()
	assert.True(t, f.Income.Equal(b.Income))
	assert.True(t, f.Expense.Equal(b.Expense))
	assert.True(t, f.Net.Equal(b.Net))
	assert.True(t, f.Net.Equal(decimal.RequireFromString("100")))
}

func TestSummaryEmpty(t *testing.T) {
	s := New().Summary()
	assert.True(t, s.Income.IsZero())
	assert.True(t, s.Expense.IsZero())
	assert.True(t, s.Net.IsZero())
}

func TestRunningBalanceByDate(t *testing.T) {
	e := New()
	// inserted out of date order on purpose
	_, err := e.Add(tx(core.Expense, "60", "Rent", "rent", d(2026, 2, 10)))
	require.NoError(t, err)
	_, err = e.Add(tx(core.Income, "100", "Sales", "invoice", d(2026, 2, 5)))
	require.NoError(t, err)
	_, err = e.Add(tx(core.Income, "70", "Services", "consult", d(2026, 2, 20)))
	require.NoError(t, err)

	lines := e.RunningBalance()
	require.Len(t, lines, 3)
	assert.Equal(t, "invoice", lines[0].Tx.Description)
	assert.True(t, lines[0].Balance.Equal(decimal.NewFromInt(100)))
	assert.True(t, lines[1].Balance.Equal(decimal.NewFromInt(40)))
	assert.True(t, lines[2].Balance.Equal(decimal.NewFromInt(110)))
}

func TestRunningBalanceSameDayIncomeFirst(t *testing.T) {
	day := d(2026, 4, 15)
	e := New()
	_, err := e.Add(tx(core.Expense, "80", "Rent", "rent", day))
	require.NoError(t, err)
	_, err = e.Add(tx(core.Income, "50", "Sales", "cash", day))
	require.NoError(t, err)
	_, err = e.Add(tx(core.Expense, "10", "Office", "pens", day))
	require.NoError(t, err)
	_, err = e.Add(tx(core.Income, "30", "Sales", "card", day))
	require.NoError(t, err)

	lines := e.RunningBalance()
	require.Len(t, lines, 4)
	// incomes first in insertion order, then expenses in insertion order
	assert.Equal(t, "cash", lines[0].Tx.Description)
	assert.Equal(t, "card", lines[1].Tx.Description)
	assert.Equal(t, "rent", lines[2].Tx.Description)
	assert.Equal(t, "pens", lines[3].Tx.Description)
	assert.True(t, lines[3].Balance.Equal(decimal.NewFromInt(-10)))
}

func TestRunningBalanceReflectsCurrentState(t *testing.T) {
	e := New()
	id, _ := e.Add(tx(core.Income, "100", "Sales", "a", d(2026, 5, 1)))
	_, _ = e.Add(tx(core.Expense, "30", "Office", "b", d(2026, 5, 2)))

	require.NoError(t, e.Delete(id))
	lines := e.RunningBalance()
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Balance.Equal(decimal.NewFromInt(-30)))
}

func TestGroupByCategoryOmitsEmptyBuckets(t *testing.T) {
	e := New()
	_, _ = e.Add(tx(core.Expense, "10", "Office", "a", d(2026, 6, 1)))
	_, _ = e.Add(tx(core.Expense, "15", "Office", "b", d(2026, 6, 2)))
	_, _ = e.Add(tx(core.Expense, "40", "Travel", "c", d(2026, 6, 3)))
	_, _ = e.Add(tx(core.Income, "99", "Sales", "d", d(2026, 6, 4)))

	groups := e.GroupByCategory(core.Expense)
	require.Len(t, groups, 2)
	assert.True(t, groups["Office"].Equal(decimal.NewFromInt(25)))
	assert.True(t, groups["Travel"].Equal(decimal.NewFromInt(40)))
	_, present := groups["Sales"]
	assert.False(t, present)
}

func TestByMonthBuckets(t *testing.T) {
	e := New()
	_, _ = e.Add(tx(core.Income, "100", "Sales", "a", d(2026, 1, 15)))
	_, _ = e.Add(tx(core.Expense, "20", "Office", "b", d(2026, 1, 31)))
	_, _ = e.Add(tx(core.Income, "50", "Sales", "c", d(2026, 3, 1)))

	months := e.ByMonth()
	require.Len(t, months, 2)

	jan := months[core.YearMonth{Year: 2026, Month: 1}]
	assert.True(t, jan.Income.Equal(decimal.NewFromInt(100)))
	assert.True(t, jan.Expense.Equal(decimal.NewFromInt(20)))
	assert.True(t, jan.Net.Equal(decimal.NewFromInt(80)))

	mar := months[core.YearMonth{Year: 2026, Month: 3}]
	assert.True(t, mar.Net.Equal(decimal.NewFromInt(50)))

	_, present := months[core.YearMonth{Year: 2026, Month: 2}]
	assert.False(t, present)
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := New()
	_, _ = e.Add(tx(core.Income, "100", "Sales", "a", d(2026, 7, 1)))
	_, _ = e.Add(tx(core.Expense, "42.42", "Travel", "b", d(2026, 7, 2)))

	snap := e.ExportSnapshot()
	restored := New()
	require.NoError(t, restored.LoadSnapshot(snap))

	assert.Equal(t, e.Len(), restored.Len())
	orig, back := e.Summary(), restored.Summary()
	assert.True(t, orig.Net.Equal(back.Net))

	origLines, backLines := e.RunningBalance(), restored.RunningBalance()
	require.Len(t, backLines, len(origLines))
	for i := range origLines {
		assert.Equal(t, origLines[i].Tx, backLines[i].Tx)
		assert.True(t, origLines[i].Balance.Equal(backLines[i].Balance))
	}
}

func TestLoadSnapshotRejectsInvalidAndKeepsState(t *testing.T) {
	e := New()
	_, _ = e.Add(tx(core.Income, "100", "Sales", "keep", d(2026, 7, 1)))

	badTx := tx(core.Income, "10", "Sales", "nope", d(2026, 7, 3))
	badTx.Kind = "Transfer"
	bad := []core.Transaction{
		tx(core.Income, "10", "Sales", "fine", d(2026, 7, 2)),
		badTx,
	}

	err := e.LoadSnapshot(bad)
	require.Error(t, err)
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)

	require.Equal(t, 1, e.Len())
	got, err := e.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Description)
}

func TestLoadSnapshotReissuesIdentities(t *testing.T) {
	e := New()
	_, _ = e.Add(tx(core.Income, "1", "Sales", "old", d(2026, 7, 1)))
	_, _ = e.Add(tx(core.Income, "2", "Sales", "old", d(2026, 7, 2)))
	require.NoError(t, e.Delete(1))

	snap := []core.Transaction{
		tx(core.Income, "5", "Sales", "x", d(2026, 8, 1)),
		tx(core.Expense, "3", "Office", "y", d(2026, 8, 2)),
		tx(core.Income, "7", "Services", "z", d(2026, 8, 3)),
	}
	require.NoError(t, e.LoadSnapshot(snap))

	for i := 1; i <= 3; i++ {
		_, err := e.Get(int64(i))
		assert.NoError(t, err)
	}
	id, err := e.Add(tx(core.Income, "9", "Sales", "next", d(2026, 8, 4)))
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)
}

func TestExportSnapshotDoesNotAliasState(t *testing.T) {
	e := New()
	_, _ = e.Add(tx(core.Income, "10", "Sales", "a", d(2026, 9, 1)))

	snap := e.ExportSnapshot()
	snap[0].Description = "tampered"

	got, err := e.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Description)
}
