// Package export serializes ledger snapshots to and from CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// Header is the CSV header for a ledger snapshot file.
const Header = "date,kind,amount,category,subcategory,description,notes"

const (
	numFields = 7
	colDate   = 0
	colKind   = 1
	colAmount = 2
	colCat    = 3
	colSubcat = 4
	colDesc   = 5
	colNotes  = 6
)

// Read reads a full snapshot from a CSV reader, header row included.
func Read(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading snapshot CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var txs []core.Transaction
	for i, rec := range records[1:] {
		tx, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Write writes a full snapshot to a CSV writer, header row included.
func Write(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txs {
		if err := cw.Write(MarshalRow(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalRow converts a transaction to a CSV row.
func MarshalRow(tx core.Transaction) []string {
	row := make([]string, numFields)
	row[colDate] = tx.Date.String()
	row[colKind] = string(tx.Kind)
	// Exact form, not StringFixed: rounding here would change amounts
	// with more than two decimal places on round trip.
	row[colAmount] = tx.Amount.String()
	row[colCat] = tx.Category
	row[colSubcat] = tx.Subcategory
	row[colDesc] = tx.Description
	row[colNotes] = tx.Notes
	return row
}

// UnmarshalRow converts a CSV row to a transaction.
func UnmarshalRow(record []string) (core.Transaction, error) {
	if len(record) != numFields {
		return core.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := core.ParseDate(record[colDate])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}
	kind, err := core.ParseKind(record[colKind])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parsing kind %q: %w", record[colKind], err)
	}
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return core.Transaction{
		Kind:        kind,
		Amount:      amount,
		Category:    record[colCat],
		Subcategory: record[colSubcat],
		Description: record[colDesc],
		Notes:       record[colNotes],
		Date:        date,
	}, nil
}
