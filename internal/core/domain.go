package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a transaction as money in or money out.
type Kind string

const (
	Income  Kind = "Income"
	Expense Kind = "Expense"
)

// Valid reports whether k is one of the two transaction kinds.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// ParseKind converts a user-supplied string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if !k.Valid() {
		return "", &ValidationError{Field: "kind", Reason: fmt.Sprintf("must be %q or %q", Income, Expense)}
	}
	return k, nil
}

// Date is a calendar day. Time-of-day carries no meaning; values are
// normalized to UTC midnight so day comparison is plain time comparison.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// YearMonth is the calendar-month bucket key used by monthly rollups.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// YearMonth returns the month bucket this date falls into.
func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Month()}
}

// Transaction is a single ledger record. It is immutable once stored:
// edits replace the whole record, deletes remove it wholesale.
type Transaction struct {
	Kind        Kind
	Amount      decimal.Decimal
	Category    string
	Subcategory string
	Description string
	Notes       string
	Date        Date
}

// Validate checks the creation invariants and returns a *ValidationError
// naming the first failing field. Category is an open string and may be
// empty; subcategory and notes are optional.
func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("must be %q or %q", Income, Expense)}
	}
	if t.Amount.Sign() <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if strings.TrimSpace(t.Description) == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if t.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "must be set"}
	}
	return nil
}

// ValidationError reports the first field of a candidate transaction that
// failed validation. The record collection is never modified when one is
// returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
