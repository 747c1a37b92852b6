package recorder

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"VnPanel/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the HTTP status endpoints can read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			tickers     INTEGER,
			succeeded   INTEGER,
			failed      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS ticker_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			ticker      TEXT NOT NULL,
			row_count   INTEGER,
			col_count   INTEGER,
			latest_date TEXT,
			export_path TEXT,
			duration_ms INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ticker_runs_run ON ticker_runs(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ticker_runs_ticker ON ticker_runs(ticker)`,

		`CREATE TABLE IF NOT EXISTS indicator_snapshots (
			ticker     TEXT PRIMARY KEY,
			run_id     TEXT,
			date       TEXT NOT NULL,
			values_json TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS dividends (
			ticker         TEXT NOT NULL,
			exercise_date  TEXT NOT NULL,
			cash_year      INTEGER,
			cash_pct       REAL,
			issue_method   TEXT,
			PRIMARY KEY (ticker, exercise_date, issue_method)
		)`,

		`CREATE TABLE IF NOT EXISTS financial_ratios (
			ticker      TEXT NOT NULL,
			year        INTEGER NOT NULL,
			quarter     INTEGER NOT NULL,
			values_json TEXT NOT NULL,
			PRIMARY KEY (ticker, year, quarter)
		)`,

		`CREATE TABLE IF NOT EXISTS financial_statements (
			ticker      TEXT NOT NULL,
			kind        TEXT NOT NULL,
			year        INTEGER NOT NULL,
			quarter     INTEGER NOT NULL,
			values_json TEXT NOT NULL,
			PRIMARY KEY (ticker, kind, year, quarter)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run header and one ticker_runs row per result.
func (r *SQLiteRecorder) RecordRun(sum *model.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO runs
		(run_id, started_at, finished_at, tickers, succeeded, failed)
		VALUES (?,?,?,?,?,?)`,
		sum.RunID, sum.StartedAt.Unix(), sum.FinishedAt.Unix(),
		len(sum.Results), sum.Succeeded(), sum.Failed(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, res := range sum.Results {
		var errText sql.NullString
		if res.Err != nil {
			errText = sql.NullString{String: res.Err.Error(), Valid: true}
		}
		var latest sql.NullString
		if !res.LatestDate.IsZero() {
			latest = sql.NullString{String: res.LatestDate.Format(dateLayout), Valid: true}
		}
		if _, err := tx.Exec(`INSERT INTO ticker_runs
			(run_id, ticker, row_count, col_count, latest_date, export_path, duration_ms, error)
			VALUES (?,?,?,?,?,?,?,?)`,
			sum.RunID, res.Ticker, res.Rows, res.Columns, latest,
			res.ExportPath, res.Duration.Milliseconds(), errText,
		); err != nil {
			return fmt.Errorf("insert ticker run %s: %w", res.Ticker, err)
		}
	}
	return tx.Commit()
}

// RecordSnapshot replaces the stored latest row of snap.Ticker. NaN values
// are not stored.
func (r *SQLiteRecorder) RecordSnapshot(snap *model.Snapshot) error {
	values := make(map[string]float64, len(snap.Values))
	for k, v := range snap.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			values[k] = v
		}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.Exec(`INSERT OR REPLACE INTO indicator_snapshots
		(ticker, run_id, date, values_json, updated_at)
		VALUES (?,?,?,?,?)`,
		snap.Ticker, snap.RunID, snap.Date.Format(dateLayout), string(data), time.Now().Unix(),
	)
	return err
}

func (r *SQLiteRecorder) RecordDividends(ticker string, divs []model.Dividend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, d := range divs {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO dividends
			(ticker, exercise_date, cash_year, cash_pct, issue_method)
			VALUES (?,?,?,?,?)`,
			ticker, d.ExerciseDate.Format(dateLayout), d.CashYear, d.CashDividendPercentage, d.IssueMethod,
		); err != nil {
			return fmt.Errorf("insert dividend: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordFinancialRatios(ticker string, ratios []model.FinancialRatio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, fr := range ratios {
		data, err := json.Marshal(fr.Values)
		if err != nil {
			return fmt.Errorf("marshal ratios: %w", err)
		}
		if _, err := tx.Exec(`INSERT OR REPLACE INTO financial_ratios
			(ticker, year, quarter, values_json) VALUES (?,?,?,?)`,
			ticker, fr.Year, fr.Quarter, string(data),
		); err != nil {
			return fmt.Errorf("insert ratio: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordStatements(ticker string, stmts []model.FinancialStatement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, st := range stmts {
		data, err := json.Marshal(st.Values)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", st.Kind, err)
		}
		if _, err := tx.Exec(`INSERT OR REPLACE INTO financial_statements
			(ticker, kind, year, quarter, values_json) VALUES (?,?,?,?,?)`,
			ticker, string(st.Kind), st.Year, st.Quarter, string(data),
		); err != nil {
			return fmt.Errorf("insert %s: %w", st.Kind, err)
		}
	}
	return tx.Commit()
}

// LatestSnapshot returns the stored latest row of ticker.
func (r *SQLiteRecorder) LatestSnapshot(ticker string) (*model.Snapshot, error) {
	var (
		snap  = &model.Snapshot{Ticker: ticker}
		runID sql.NullString
		date  string
		data  string
	)
	err := r.db.QueryRow(`SELECT run_id, date, values_json FROM indicator_snapshots WHERE ticker = ?`, ticker).
		Scan(&runID, &date, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	snap.RunID = runID.String
	if snap.Date, err = time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("parse snapshot date: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &snap.Values); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// LastRun returns the most recently started run.
func (r *SQLiteRecorder) LastRun() (*RunRecord, error) {
	var (
		rec             RunRecord
		started, finish int64
	)
	err := r.db.QueryRow(`SELECT run_id, started_at, finished_at, tickers, succeeded, failed
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).
		Scan(&rec.RunID, &started, &finish, &rec.Tickers, &rec.Succeeded, &rec.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	rec.StartedAt = time.Unix(started, 0)
	rec.FinishedAt = time.Unix(finish, 0)
	return &rec, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
