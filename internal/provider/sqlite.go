package provider

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/openquant/hindsight/internal/core"
)

// Compile-time interface check.
var _ Provider = (*SQLiteProvider)(nil)

const dateLayout = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS daily_bars (
	symbol TEXT NOT NULL,
	date   TEXT NOT NULL,
	open   REAL NOT NULL DEFAULT 0,
	high   REAL NOT NULL DEFAULT 0,
	low    REAL NOT NULL DEFAULT 0,
	close  REAL NOT NULL,
	volume INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (symbol, date)
);
`

// SQLiteProvider serves price series from a local SQLite bar database.
type SQLiteProvider struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the bar database at dbPath.
func NewSQLite(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	return &SQLiteProvider{db: db}, nil
}

// Close closes the underlying database connection.
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

// GetPriceSeries returns the ordered daily series for a symbol.
func (p *SQLiteProvider) GetPriceSeries(ctx context.Context, stockID string) ([]core.PriceBar, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT date, open, high, low, close, volume
		 FROM daily_bars WHERE symbol = ? ORDER BY date ASC`, stockID)
	if err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	defer rows.Close()

	var bars []core.PriceBar
	for rows.Next() {
		var dateStr string
		var b core.PriceBar
		if err := rows.Scan(&dateStr, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, core.WrapError(core.ErrProviderFailed, err)
		}
		b.Date, err = time.ParseInLocation(dateLayout, dateStr, time.UTC)
		if err != nil {
			return nil, core.WrapError(core.ErrProviderFailed,
				fmt.Errorf("bad date %q for %s: %w", dateStr, stockID, err))
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrSymbolNotFound,
			fmt.Errorf("no bars for %s", stockID))
	}
	return bars, nil
}

// ListSymbols returns all symbols present in the database.
func (p *SQLiteProvider) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT DISTINCT symbol FROM daily_bars ORDER BY symbol ASC`)
	if err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, core.WrapError(core.ErrProviderFailed, err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// SaveBars upserts a batch of bars for a symbol. Used by the ingest path;
// the backtesting engine itself never writes.
func (p *SQLiteProvider) SaveBars(ctx context.Context, stockID string, bars []core.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return core.WrapError(core.ErrProviderFailed, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO daily_bars (symbol, date, open, high, low, close, volume)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(symbol, date) DO UPDATE SET
		 open=excluded.open, high=excluded.high, low=excluded.low,
		 close=excluded.close, volume=excluded.volume`)
	if err != nil {
		return core.WrapError(core.ErrProviderFailed, err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if !b.IsValid() {
			return core.WrapError(core.ErrProviderFailed,
				fmt.Errorf("invalid bar for %s at %v", stockID, b.Date))
		}
		if _, err := stmt.ExecContext(ctx, stockID, b.Date.UTC().Format(dateLayout),
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return core.WrapError(core.ErrProviderFailed, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return core.WrapError(core.ErrProviderFailed, err)
	}
	return nil
}
