// Package memory is the zero-dependency snapshot store used for local
// development and tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"tally/internal/core"
)

type Store struct {
	mu         sync.Mutex
	snapshots  map[string][]core.Transaction
	incomeCat  []string
	expenseCat []string
}

func New(incomeCats, expenseCats []string) *Store {
	return &Store{
		snapshots:  make(map[string][]core.Transaction),
		incomeCat:  dedupe(incomeCats),
		expenseCat: dedupe(expenseCats),
	}
}

// NewFromFiles reads seed suggestion lists from base, falling back to
// built-in defaults when the files are absent or empty.
func NewFromFiles(base string) *Store {
	income := readLines(filepath.Join(base, "seed_income_categories.txt"))
	expense := readLines(filepath.Join(base, "seed_expense_categories.txt"))
	if len(income) == 0 {
		income = []string{"Sales", "Services", "Freelance", "Salary", "Other"}
	}
	if len(expense) == 0 {
		expense = []string{"Office", "Travel", "Supplies", "Utilities", "Marketing", "Payroll", "Rent", "Other"}
	}
	return New(income, expense)
}

// Load returns the stored snapshot for sessionID, or nil if none exists.
func (s *Store) Load(_ context.Context, sessionID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.snapshots[sessionID]...), nil
}

// Save replaces the stored snapshot for sessionID. An empty snapshot
// removes the session entirely, matching the sqlite adapter where a
// row-less session no longer exists.
func (s *Store) Save(_ context.Context, sessionID string, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(txs) == 0 {
		delete(s.snapshots, sessionID)
		return nil
	}
	s.snapshots[sessionID] = append([]core.Transaction(nil), txs...)
	return nil
}

// ListSessions returns the IDs of every session with a stored snapshot.
func (s *Store) ListSessions(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Suggestions returns the category suggestion list for the given kind.
func (s *Store) Suggestions(_ context.Context, kind core.Kind) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kind == core.Income {
		return append([]string(nil), s.incomeCat...), nil
	}
	return append([]string(nil), s.expenseCat...), nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
