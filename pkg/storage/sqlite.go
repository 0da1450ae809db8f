package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const defaultListLimit = 50

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) RecordCycle(ctx context.Context, c *Cycle) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.StartedAt.IsZero() {
		c.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles (id, started_at, took_ms, fetched, matched, notified, result, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.StartedAt.UTC(), c.TookMS, c.Fetched, c.Matched, c.Notified, c.Result, c.Error,
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

func (s *SQLite) RecordNotifications(ctx context.Context, cycleID string, items []Notification) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notifications: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO notifications (id, cycle_id, address, chain_id, exchange, apr, earn_fee, volume, reason, notified_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare notification insert: %w", err)
	}
	defer stmt.Close()

	for i := range items {
		n := &items[i]
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		n.CycleID = cycleID
		if n.NotifiedAt.IsZero() {
			n.NotifiedAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			n.ID, n.CycleID, n.Address, n.ChainID, n.Exchange,
			n.APR, n.EarnFee, n.Volume, n.Reason, n.NotifiedAt.UTC(),
		); err != nil {
			return fmt.Errorf("insert notification %s: %w", n.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notifications: %w", err)
	}
	return nil
}

func (s *SQLite) ListCycles(ctx context.Context, limit int) ([]Cycle, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, took_ms, fetched, matched, notified, result, error
		 FROM cycles ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var c Cycle
		if err := rows.Scan(&c.ID, &c.StartedAt, &c.TookMS, &c.Fetched, &c.Matched,
			&c.Notified, &c.Result, &c.Error); err != nil {
			return nil, fmt.Errorf("scan cycle row: %w", err)
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

func (s *SQLite) QueryNotifications(ctx context.Context, filter NotificationFilter) ([]Notification, error) {
	query := `SELECT id, cycle_id, address, chain_id, exchange, apr, earn_fee, volume, reason, notified_at
		FROM notifications`
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " ORDER BY notified_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.CycleID, &n.Address, &n.ChainID, &n.Exchange,
			&n.APR, &n.EarnFee, &n.Volume, &n.Reason, &n.NotifiedAt); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// buildWhereClause constructs a SQL WHERE clause from a NotificationFilter.
func buildWhereClause(filter NotificationFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Address != "" {
		conditions = append(conditions, "address = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(filter.Address)))
	}
	if filter.ChainID != "" {
		conditions = append(conditions, "chain_id = ?")
		args = append(args, filter.ChainID)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "notified_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	return strings.Join(conditions, " AND "), args
}
