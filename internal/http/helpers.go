package http

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/ledger"
)

// parseTransactionForm builds a candidate transaction from form values.
// Field-level validation happens in the engine; this only converts the
// typed fields and surfaces conversion failures as validation errors.
func parseTransactionForm(form url.Values) (core.Transaction, error) {
	var tx core.Transaction

	kindStr := strings.TrimSpace(form.Get("kind"))
	if kindStr != "" {
		kind, err := core.ParseKind(kindStr)
		if err != nil {
			return tx, err
		}
		tx.Kind = kind
	}

	amountStr := strings.TrimSpace(form.Get("amount"))
	if amountStr != "" {
		amount, err := core.ParseAmount(amountStr)
		if err != nil {
			return tx, err
		}
		tx.Amount = amount
	}

	if dateStr := strings.TrimSpace(form.Get("date")); dateStr != "" {
		date, err := core.ParseDate(dateStr)
		if err != nil {
			return tx, err
		}
		tx.Date = date
	}

	tx.Category = sanitizeInput(form.Get("category"))
	tx.Subcategory = sanitizeInput(form.Get("subcategory"))
	tx.Description = sanitizeInput(form.Get("description"))
	tx.Notes = sanitizeInput(form.Get("notes"))

	return tx, nil
}

// parseFilterQuery builds a ledger query from URL parameters. Malformed
// values deactivate their criterion rather than failing the view.
func parseFilterQuery(query url.Values) ledger.Query {
	var q ledger.Query

	if v := strings.TrimSpace(query.Get("kind")); v != "" {
		if kind, err := core.ParseKind(v); err == nil {
			q.Kind = kind
		}
	}
	for _, c := range query["category"] {
		if c = strings.TrimSpace(c); c != "" {
			q.Categories = append(q.Categories, c)
		}
	}
	q.Keyword = strings.TrimSpace(query.Get("q"))
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		if d, err := core.ParseDate(v); err == nil {
			q.From = d
		}
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		if d, err := core.ParseDate(v); err == nil {
			q.To = d
		}
	}

	return q
}

var hundred = decimal.NewFromInt(100)

// formatAmount renders a decimal as a currency string, e.g. "$12.34".
func formatAmount(d decimal.Decimal) string {
	if d.Sign() < 0 {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// sanitizeInput trims whitespace and strips control characters except
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
