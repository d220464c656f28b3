// Package ledger implements the in-memory transaction ledger for one user
// session: appending, replacing and removing records, and deriving totals,
// running balances, filtered views and category/month rollups from them.
//
// An Engine owns its record collection exclusively and performs no I/O and
// no locking; a host serving concurrent sessions gives each session its own
// Engine and serializes access to it.
package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// Line is one row of the running-balance view: a stored transaction, its
// identity, and the cumulative net balance up to and including it.
type Line struct {
	ID      int64
	Tx      core.Transaction
	Balance decimal.Decimal
}

// Totals is the income/expense/net fold over a set of transactions.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

type entry struct {
	id int64
	tx core.Transaction
}

// Engine holds the transaction collection for one session. The zero value
// is not usable; construct with New.
type Engine struct {
	nextID  int64
	entries []entry         // insertion order
	slots   map[int64]int   // identity -> position in entries
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{slots: make(map[int64]int)}
}

// Len returns the number of stored transactions.
func (e *Engine) Len() int {
	return len(e.entries)
}

// Add validates tx and appends it, returning the assigned identity.
// A missing date defaults to today. On validation failure the collection
// is unchanged.
func (e *Engine) Add(tx core.Transaction) (int64, error) {
	tx = withDefaults(tx)
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	e.nextID++
	id := e.nextID
	e.entries = append(e.entries, entry{id: id, tx: tx})
	e.slots[id] = len(e.entries) - 1
	return id, nil
}

// Update replaces the record at id with tx in full. There is no partial
// merge; tx passes the same validation as Add.
func (e *Engine) Update(id int64, tx core.Transaction) error {
	slot, ok := e.slots[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	tx = withDefaults(tx)
	if err := tx.Validate(); err != nil {
		return err
	}
	e.entries[slot].tx = tx
	return nil
}

// Delete removes the record at id. Identities of surviving records are
// unaffected: they stay resolvable across deletes of unrelated records,
// and identities are never reused within a session.
func (e *Engine) Delete(id int64) error {
	slot, ok := e.slots[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	e.entries = append(e.entries[:slot], e.entries[slot+1:]...)
	delete(e.slots, id)
	for i := slot; i < len(e.entries); i++ {
		e.slots[e.entries[i].id] = i
	}
	return nil
}

// Get returns the transaction stored at id.
func (e *Engine) Get(id int64) (core.Transaction, error) {
	slot, ok := e.slots[id]
	if !ok {
		return core.Transaction{}, &NotFoundError{ID: id}
	}
	return e.entries[slot].tx, nil
}

// Summary folds the whole collection into income/expense/net totals.
// The fold order is irrelevant: decimal addition is exact, so any
// permutation of the same records yields identical totals.
func (e *Engine) Summary() Totals {
	t := Totals{Income: decimal.Zero, Expense: decimal.Zero, Net: decimal.Zero}
	for _, en := range e.entries {
		t = t.accumulate(en.tx)
	}
	return t
}

func (t Totals) accumulate(tx core.Transaction) Totals {
	switch tx.Kind {
	case core.Income:
		t.Income = t.Income.Add(tx.Amount)
	case core.Expense:
		t.Expense = t.Expense.Add(tx.Amount)
	}
	t.Net = t.Income.Sub(t.Expense)
	return t
}

// RunningBalance returns every record annotated with the cumulative net
// balance, ordered by date ascending. Records sharing a date are ordered
// income before expense, so the intra-day balance never dips below its
// end-of-day value; ties within the same date and kind keep insertion
// order. The view is derived fresh from current state on every call.
func (e *Engine) RunningBalance() []Line {
	lines := make([]Line, len(e.entries))
	for i, en := range e.entries {
		lines[i] = Line{ID: en.id, Tx: en.tx}
	}
	sort.SliceStable(lines, func(i, j int) bool {
		di, dj := lines[i].Tx.Date, lines[j].Tx.Date
		if !di.Equal(dj.Time) {
			return di.Before(dj.Time)
		}
		return kindRank(lines[i].Tx.Kind) < kindRank(lines[j].Tx.Kind)
	})
	balance := decimal.Zero
	for i := range lines {
		if lines[i].Tx.Kind == core.Income {
			balance = balance.Add(lines[i].Tx.Amount)
		} else {
			balance = balance.Sub(lines[i].Tx.Amount)
		}
		lines[i].Balance = balance
	}
	return lines
}

func kindRank(k core.Kind) int {
	if k == core.Income {
		return 0
	}
	return 1
}

// GroupByCategory restricts to records of the given kind and sums amounts
// per category. Categories with no matching records are absent.
func (e *Engine) GroupByCategory(kind core.Kind) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, en := range e.entries {
		if en.tx.Kind != kind {
			continue
		}
		sums[en.tx.Category] = sums[en.tx.Category].Add(en.tx.Amount)
	}
	return sums
}

// ByMonth buckets records by calendar month and folds each bucket into
// income/expense/net totals. Months with no records are absent.
func (e *Engine) ByMonth() map[core.YearMonth]Totals {
	months := make(map[core.YearMonth]Totals)
	for _, en := range e.entries {
		ym := en.tx.Date.YearMonth()
		t, ok := months[ym]
		if !ok {
			t = Totals{Income: decimal.Zero, Expense: decimal.Zero, Net: decimal.Zero}
		}
		months[ym] = t.accumulate(en.tx)
	}
	return months
}

// LoadSnapshot replaces the collection wholesale with the given records,
// assigning fresh identities in snapshot order. Every record is validated
// first; on any failure the previous collection is left intact.
func (e *Engine) LoadSnapshot(txs []core.Transaction) error {
	normalized := make([]core.Transaction, len(txs))
	for i, tx := range txs {
		tx = withDefaults(tx)
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("snapshot record %d: %w", i, err)
		}
		normalized[i] = tx
	}
	e.entries = make([]entry, len(normalized))
	e.slots = make(map[int64]int, len(normalized))
	for i, tx := range normalized {
		id := int64(i + 1)
		e.entries[i] = entry{id: id, tx: tx}
		e.slots[id] = i
	}
	e.nextID = int64(len(normalized))
	return nil
}

// ExportSnapshot hands the current collection, in insertion order, to an
// external store or writer. The returned slice does not alias engine state.
func (e *Engine) ExportSnapshot() []core.Transaction {
	out := make([]core.Transaction, len(e.entries))
	for i, en := range e.entries {
		out[i] = en.tx
	}
	return out
}

func withDefaults(tx core.Transaction) core.Transaction {
	if tx.Date.IsZero() {
		tx.Date = core.Today()
	}
	return tx
}
