package storage

// sqlite.go: histórico de runs de backtest.
//
// Tablas:
//   - `runs`: una fila por ejecución con los agregados del reporte.
//   - `instruments`: una fila por instrumento evaluado en el run.
//   - `trades`: una fila por trade simulado.
//
// Todo el reporte de un run se escribe en una sola transacción.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/klinebt/internal/domain"
	"github.com/alejandrodnm/klinebt/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id                TEXT PRIMARY KEY,
    strategy          TEXT     NOT NULL,
    mode              TEXT     NOT NULL,
    workers           INTEGER  NOT NULL,
    source            TEXT     NOT NULL DEFAULT '',
    started_at        TEXT     NOT NULL,
    finished_at       TEXT     NOT NULL,
    instruments       INTEGER  NOT NULL DEFAULT 0,
    trades            INTEGER  NOT NULL DEFAULT 0,
    avg_return        REAL     NOT NULL DEFAULT 0,
    avg_success_ratio REAL     NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS instruments (
    run_id        TEXT    NOT NULL REFERENCES runs(id),
    instrument    TEXT    NOT NULL,
    exchange      TEXT    NOT NULL,
    base          TEXT    NOT NULL,
    quote         TEXT    NOT NULL,
    value         REAL    NOT NULL,
    trades        INTEGER NOT NULL,
    success_ratio REAL    NOT NULL,
    PRIMARY KEY (run_id, instrument)
);

CREATE TABLE IF NOT EXISTS trades (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT    NOT NULL REFERENCES runs(id),
    instrument  TEXT    NOT NULL,
    buy_price   REAL    NOT NULL,
    sell_price  REAL    NOT NULL,
    buy_minute  INTEGER NOT NULL,
    sell_minute INTEGER NOT NULL,
    profit      REAL    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started   ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_run_ins ON trades(run_id, instrument);
`

// timeLayout tiene ancho fijo para que ORDER BY sobre el texto sea cronológico.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound se devuelve cuando el id no existe en la tabla runs.
var ErrRunNotFound = errors.New("run not found")

var _ ports.RunStorage = (*SQLiteStorage)(nil)

// SQLiteStorage implementa ports.RunStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// SaveRun persiste la cabecera del run, sus instrumentos y sus trades.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.Run, report domain.FinalReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, strategy, mode, workers, source, started_at, finished_at,
			 instruments, trades, avg_return, avg_success_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Strategy, run.Mode, run.Workers, run.Source,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.Instruments, run.Trades, run.AvgReturn, run.AvgSuccessRatio,
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", run.ID, err)
	}

	insStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO instruments
			(run_id, instrument, exchange, base, quote, value, trades, success_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare instruments: %w", err)
	}
	defer insStmt.Close()

	tradeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
			(run_id, instrument, buy_price, sell_price, buy_minute, sell_minute, profit)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare trades: %w", err)
	}
	defer tradeStmt.Close()

	for _, sum := range report.Summaries {
		inst := sum.Instrument
		if _, err := insStmt.ExecContext(ctx,
			run.ID, sum.Key, inst.Exchange, inst.Base, inst.Quote,
			sum.Value, len(sum.Trades), sum.SuccessRatio,
		); err != nil {
			return fmt.Errorf("storage.SaveRun: insert instrument %s: %w", sum.Key, err)
		}
		for _, t := range sum.Trades {
			if _, err := tradeStmt.ExecContext(ctx,
				run.ID, sum.Key, t.BuyPrice, t.SellPrice, t.BuyMinute, t.SellMinute, t.Profit,
			); err != nil {
				return fmt.Errorf("storage.SaveRun: insert trade %s@%d: %w", sum.Key, t.BuyMinute, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

const runColumns = `id, strategy, mode, workers, source, started_at, finished_at,
	instruments, trades, avg_return, avg_success_ratio`

// GetRun devuelve la cabecera del run con el id dado.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (domain.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Run{}, fmt.Errorf("storage.GetRun: %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return domain.Run{}, fmt.Errorf("storage.GetRun: %s: %w", id, err)
	}
	return run, nil
}

// ListRuns devuelve hasta limit runs, el más reciente primero.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListRuns: scan row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// InstrumentValues devuelve instrument → value de un run guardado.
func (s *SQLiteStorage) InstrumentValues(ctx context.Context, runID string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT instrument, value FROM instruments WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.InstrumentValues: query: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var key string
		var v float64
		if err := rows.Scan(&key, &v); err != nil {
			return nil, fmt.Errorf("storage.InstrumentValues: scan row: %w", err)
		}
		values[key] = v
	}
	return values, rows.Err()
}

// TradeCount devuelve el número de trades guardados para un run.
func (s *SQLiteStorage) TradeCount(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("storage.TradeCount: %w", err)
	}
	return n, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (domain.Run, error) {
	var run domain.Run
	var started, finished string
	if err := r.Scan(
		&run.ID, &run.Strategy, &run.Mode, &run.Workers, &run.Source,
		&started, &finished,
		&run.Instruments, &run.Trades, &run.AvgReturn, &run.AvgSuccessRatio,
	); err != nil {
		return domain.Run{}, err
	}
	run.StartedAt, _ = time.Parse(timeLayout, started)
	run.FinishedAt, _ = time.Parse(timeLayout, finished)
	return run, nil
}
