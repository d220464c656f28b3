// Package sqlite persists ledger snapshots in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save replaces the stored snapshot for sessionID inside one transaction,
// keeping snapshot order in the position column.
func (s *Store) Save(ctx context.Context, sessionID string, txs []core.Transaction) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot save: %w", err)
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM transactions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear previous snapshot: %w", err)
	}

	const insert = `
		INSERT INTO transactions (session_id, position, kind, amount, category, subcategory, description, notes, tx_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i, tx := range txs {
		if _, err := dbtx.ExecContext(ctx, insert,
			sessionID, i, string(tx.Kind), tx.Amount.String(),
			tx.Category, tx.Subcategory, tx.Description, tx.Notes,
			tx.Date.String(),
		); err != nil {
			return fmt.Errorf("insert snapshot record %d: %w", i, err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot save: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved to SQLite",
		"session_id", sessionID,
		"records", len(txs))

	return nil
}

// Load returns the stored snapshot for sessionID in snapshot order, or
// nil when the session has never been saved.
func (s *Store) Load(ctx context.Context, sessionID string) ([]core.Transaction, error) {
	const query = `
		SELECT kind, amount, category, subcategory, description, notes, tx_date
		FROM transactions
		WHERE session_id = ?
		ORDER BY position`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var kind, amount, txDate string
		var tx core.Transaction
		if err := rows.Scan(&kind, &amount, &tx.Category, &tx.Subcategory, &tx.Description, &tx.Notes, &txDate); err != nil {
			return nil, fmt.Errorf("scan snapshot record: %w", err)
		}
		tx.Kind = core.Kind(kind)
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
		}
		if tx.Date, err = core.ParseDate(txDate); err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", txDate, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return txs, nil
}

// ListSessions returns every session ID with at least one stored record.
func (s *Store) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT session_id FROM transactions ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return ids, nil
}
