// Package tradelog persists every executed fill to a SQLite database for
// audit and after-the-fact reconciliation. It is independent of
// infra/outbox: the outbox exists to get trades published at least once,
// the trade log exists so a compliance query never depends on Kafka
// retention.
package tradelog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"matchcore/core"
)

// TradeLog is a SQLite-backed append-only ledger of executed fills.
type TradeLog struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists, in WAL mode for concurrent readers.
func Open(path string) (*TradeLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tradelog: open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("tradelog: pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("tradelog: create metadata table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			seq            INTEGER PRIMARY KEY,
			ts             INTEGER NOT NULL,
			price          INTEGER NOT NULL,
			qty            INTEGER NOT NULL,
			resting_id     INTEGER NOT NULL,
			resting_side   INTEGER NOT NULL,
			inbound_id     INTEGER NOT NULL,
			resting_filled INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("tradelog: create trades table: %w", err)
	}

	return &TradeLog{db: db}, nil
}

// Record appends one fill to the ledger, keyed by seq, the fill sequence
// number the caller assigned to it (independent of the WAL's).
func (t *TradeLog) Record(ctx context.Context, seq uint64, ts int64, fill core.Fill) error {
	filled := 0
	if fill.RestingFilled {
		filled = 1
	}
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO trades (seq, ts, price, qty, resting_id, resting_side, inbound_id, resting_filled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, ts, fill.Price, fill.Qty, fill.RestingID, int(fill.RestingSide), fill.InboundID, filled,
	)
	if err != nil {
		return fmt.Errorf("tradelog: insert trade %d: %w", seq, err)
	}
	return nil
}

// LastSeq returns the highest sequence number recorded, or 0 if the
// ledger is empty.
func (t *TradeLog) LastSeq(ctx context.Context) (uint64, error) {
	var lastSeq sql.NullInt64
	err := t.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM trades").Scan(&lastSeq)
	if err != nil {
		return 0, fmt.Errorf("tradelog: last seq: %w", err)
	}
	if !lastSeq.Valid {
		return 0, nil
	}
	return uint64(lastSeq.Int64), nil
}

// LoadSince returns every fill recorded from fromSeq (inclusive) onward,
// in sequence order.
func (t *TradeLog) LoadSince(ctx context.Context, fromSeq uint64) ([]core.Fill, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT price, qty, resting_id, resting_side, inbound_id, resting_filled
		 FROM trades WHERE seq >= ? ORDER BY seq ASC`,
		fromSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("tradelog: query trades: %w", err)
	}
	defer rows.Close()

	var fills []core.Fill
	for rows.Next() {
		var f core.Fill
		var side int
		var filled int
		if err := rows.Scan(&f.Price, &f.Qty, &f.RestingID, &side, &f.InboundID, &filled); err != nil {
			return nil, fmt.Errorf("tradelog: scan trade: %w", err)
		}
		f.RestingSide = core.Side(side)
		f.RestingFilled = filled != 0
		fills = append(fills, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tradelog: rows: %w", err)
	}
	return fills, nil
}

// Close closes the underlying database connection.
func (t *TradeLog) Close() error {
	return t.db.Close()
}
