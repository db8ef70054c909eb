package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"MarketLens/internal/model"
)

// SQLiteRecorder persists snapshot history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection so the pragmas below hold for every statement
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id          TEXT PRIMARY KEY,
			symbol      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			price       REAL,
			bias        REAL,
			confidence  REAL,
			tilt        TEXT,
			regime      TEXT,
			prob_up     INTEGER,
			prob_flat   INTEGER,
			prob_down   INTEGER,
			signals     TEXT,
			narrative   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_ts ON snapshots(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			events      TEXT,
			delivered   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshot(ctx context.Context, snap *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	signals, err := json.Marshal(snap.Signals)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}
	sc := snap.Score
	_, err = r.db.ExecContext(ctx, `INSERT OR REPLACE INTO snapshots
		(id, symbol, timestamp, price, bias, confidence, tilt, regime,
		 prob_up, prob_flat, prob_down, signals, narrative)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		snap.ID, snap.Symbol, snap.GeneratedAt.UnixMilli(), snap.Price,
		sc.Bias, sc.Confidence, sc.TiltLabel, string(snap.Signals.Regime),
		sc.Probabilities.Up, sc.Probabilities.Flat, sc.Probabilities.Down,
		string(signals), snap.Narrative,
	)
	return err
}

func (r *SQLiteRecorder) RecordAlert(ctx context.Context, evt *AlertEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	if evt.Delivered {
		delivered = 1
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO alerts
		(symbol, timestamp, events, delivered)
		VALUES (?,?,?,?)`,
		evt.Symbol, evt.Timestamp.UnixMilli(), strings.Join(evt.Events, "; "), delivered,
	)
	return err
}

// Recent returns up to limit entries for symbol, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, symbol string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, symbol, timestamp, price, bias, confidence, tilt, regime,
		prob_up, prob_flat, prob_down, signals, narrative
		FROM snapshots WHERE symbol = ? ORDER BY timestamp DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var (
			e       HistoryEntry
			ts      int64
			signals string
		)
		if err := rows.Scan(&e.ID, &e.Symbol, &ts, &e.Price, &e.Bias, &e.Confidence, &e.Tilt, &e.Regime,
			&e.Odds.Up, &e.Odds.Flat, &e.Odds.Down, &signals, &e.Narrative); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		if err := json.Unmarshal([]byte(signals), &e.Signals); err != nil {
			r.log.Warn().Err(err).Str("id", e.ID).Msg("decode stored signals")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
