package ledger

import (
	"strings"

	"tally/internal/core"
)

// Query narrows the running-balance view. Zero-valued criteria are
// inactive; active criteria combine conjunctively.
type Query struct {
	Kind       core.Kind // restrict to one kind when non-empty
	Categories []string  // exact match against any listed category
	Keyword    string    // case-insensitive substring of description or notes
	From       core.Date // inclusive lower date bound
	To         core.Date // inclusive upper date bound
}

// IsZero reports whether no criterion is active.
func (q Query) IsZero() bool {
	return q.Kind == "" && len(q.Categories) == 0 && q.Keyword == "" &&
		q.From.IsZero() && q.To.IsZero()
}

// Filter applies q to the running-balance view and returns the rows that
// satisfy every active criterion. Balances are those of the unfiltered
// view: filtering selects rows, it never recomputes them.
func (e *Engine) Filter(q Query) []Line {
	lines := e.RunningBalance()
	if q.IsZero() {
		return lines
	}
	keyword := strings.ToLower(q.Keyword)
	out := lines[:0:0]
	for _, ln := range lines {
		if !q.match(ln.Tx, keyword) {
			continue
		}
		out = append(out, ln)
	}
	return out
}

func (q Query) match(tx core.Transaction, keyword string) bool {
	if q.Kind != "" && tx.Kind != q.Kind {
		return false
	}
	if len(q.Categories) > 0 && !contains(q.Categories, tx.Category) {
		return false
	}
	if keyword != "" &&
		!strings.Contains(strings.ToLower(tx.Description), keyword) &&
		!strings.Contains(strings.ToLower(tx.Notes), keyword) {
		return false
	}
	if !q.From.IsZero() && tx.Date.Before(q.From.Time) {
		return false
	}
	if !q.To.IsZero() && tx.Date.After(q.To.Time) {
		return false
	}
	return true
}

func contains(set []string, s string) bool {
	for _, c := range set {
		if c == s {
			return true
		}
	}
	return false
}
