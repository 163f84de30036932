package recorder

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/quantrail/advisor/types"
)

// SQLiteRecorder appends closed trades to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so external readers do not block the engine's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS closed_trades (
			id          TEXT PRIMARY KEY,
			symbol      TEXT NOT NULL,
			direction   TEXT NOT NULL,
			entry_price REAL,
			exit_price  REAL,
			quantity    REAL,
			target      REAL,
			stoploss    REAL,
			order_ref   TEXT,
			status      TEXT NOT NULL,
			confidence  REAL,
			pnl         REAL,
			created_at  INTEGER NOT NULL,
			closed_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_closed_trades_closed_at ON closed_trades(closed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_closed_trades_symbol ON closed_trades(symbol)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordClosedTrade inserts one terminal trade. Re-recording the same trade
// id replaces the previous row, so retries are harmless.
func (r *SQLiteRecorder) RecordClosedTrade(t types.ExecutedTrade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR REPLACE INTO closed_trades
		(id, symbol, direction, entry_price, exit_price, quantity,
		 target, stoploss, order_ref, status, confidence, pnl, created_at, closed_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Symbol, string(t.Direction), t.EntryPrice, t.ExitPrice, t.Quantity,
		t.Target, t.Stoploss, t.OrderRef, string(t.Status), t.Confidence, t.PnL,
		t.CreatedAt.Unix(), t.ClosedAt.Unix(),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
