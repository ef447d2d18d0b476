package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fernwell/caseflow/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements OrderDirectory and ActionLedger on a single
// SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc SQLite serializes writes; a single connection avoids
	// SQLITE_BUSY churn between the directory and the ledger.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initialize creates the required tables.
func (s *SQLiteStore) initialize() error {
	ordersTable := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		amount REAL NOT NULL,
		purchased_at TEXT NOT NULL
	);
	`

	ledgerTable := `
	CREATE TABLE IF NOT EXISTS action_ledger (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		facts TEXT,
		reason TEXT,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ledger_message ON action_ledger(message_id);
	`

	for _, table := range []string{ordersTable, ledgerTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Lookup implements OrderDirectory.
func (s *SQLiteStore) Lookup(ctx context.Context, id string) (*Order, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, status, amount, purchased_at FROM orders WHERE id = ?", id)

	var o Order
	var purchasedAt string
	if err := row.Scan(&o.ID, &o.Status, &o.Amount, &purchasedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	t, err := time.Parse(time.RFC3339, purchasedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid purchased_at for order %s: %w", o.ID, err)
	}
	o.PurchasedAt = t
	return &o, nil
}

// Add implements OrderDirectory. Existing records are replaced.
func (s *SQLiteStore) Add(ctx context.Context, o Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, status, amount, purchased_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			amount = excluded.amount,
			purchased_at = excluded.purchased_at
	`, o.ID, o.Status, o.Amount, o.PurchasedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert order %s: %w", o.ID, err)
	}
	return nil
}

// Record implements ActionLedger.
func (s *SQLiteStore) Record(ctx context.Context, messageID string, res models.ExecutionResult) error {
	var facts any
	if len(res.Facts) > 0 {
		encoded, err := json.Marshal(res.Facts)
		if err != nil {
			return fmt.Errorf("failed to encode facts: %w", err)
		}
		facts = string(encoded)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO action_ledger (message_id, kind, status, facts, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, messageID, string(res.Action.Kind), string(res.Status), facts, res.Reason,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}
	return nil
}

// Recent implements ActionLedger.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, kind, status, facts, reason, recorded_at
		FROM action_ledger
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		var messageID, facts, reason sql.NullString
		var kind, status, recordedAt string
		if err := rows.Scan(&e.ID, &messageID, &kind, &status, &facts, &reason, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.MessageID = messageID.String
		e.Kind = models.ActionKind(kind)
		e.Status = models.ExecutionStatus(status)
		e.Reason = reason.String
		if facts.Valid && facts.String != "" {
			if err := json.Unmarshal([]byte(facts.String), &e.Facts); err != nil {
				return nil, fmt.Errorf("failed to decode facts for entry %d: %w", e.ID, err)
			}
		}
		t, err := time.Parse(time.RFC3339, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid recorded_at for entry %d: %w", e.ID, err)
		}
		e.RecordedAt = t
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger rows: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
