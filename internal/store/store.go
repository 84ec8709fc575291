// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps the history of harvest runs and per-paper outcomes
// in a SQLite database inside the output directory.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/confharvest/pkg/types"
)

// DBFile is the database file name inside an output directory.
const DBFile = "harvest.db"

// ErrNoRuns means the database holds no runs yet.
var ErrNoRuns = errors.New("no runs recorded")

// Run is one harvest invocation against a venue listing.
type Run struct {
	ID         string
	Venue      string
	Year       int
	EventType  string
	StartedAt  time.Time
	FinishedAt time.Time

	Total       int
	Success     int
	Exists      int
	Failed      int
	SuccessRate float64
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates dir/harvest.db and its schema.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}
	dbPath := filepath.Join(dir, DBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			venue TEXT NOT NULL,
			year INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			total INTEGER NOT NULL DEFAULT 0,
			success INTEGER NOT NULL DEFAULT 0,
			exists_count INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			success_rate REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			run_id TEXT NOT NULL REFERENCES runs(id),
			paper_id TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			status TEXT NOT NULL,
			method TEXT,
			reason TEXT,
			detail TEXT,
			pdf_url TEXT,
			local_path TEXT,
			pdf_pages INTEGER,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (run_id, paper_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(run_id, status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return s.addColumn("outcomes", "detail", "TEXT")
}

// addColumn adds a column missing from a database created by an older
// schema.
func (s *Store) addColumn(table, column, decl string) error {
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl)); err != nil {
		return fmt.Errorf("adding %s.%s: %w", table, column, err)
	}
	return nil
}

// BeginRun records the start of r.
func (s *Store) BeginRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, venue, year, event_type, started_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Venue, r.Year, r.EventType, r.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", r.ID, err)
	}
	return nil
}

// RecordOutcome stores the annotated paper p under runID.
func (s *Store) RecordOutcome(ctx context.Context, runID string, p types.Paper) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, paper_id, title, authors, status, method, reason, detail, pdf_url, local_path, pdf_pages, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, paper_id) DO UPDATE SET
			status=excluded.status, method=excluded.method, reason=excluded.reason, detail=excluded.detail,
			pdf_url=excluded.pdf_url, local_path=excluded.local_path,
			pdf_pages=excluded.pdf_pages, recorded_at=excluded.recorded_at`,
		runID, p.ID, p.Title, p.Authors, string(p.DownloadStatus), string(p.DownloadMethod),
		string(p.FailureReason), p.FailureDetail, p.PDFURL, p.LocalPDFPath, p.PDFPages,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording outcome for %s: %w", p.ID, err)
	}
	return nil
}

// FinishRun stores the final counts of r.
func (s *Store) FinishRun(ctx context.Context, r Run) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at=?, total=?, success=?, exists_count=?, failed=?, success_rate=? WHERE id=?`,
		r.FinishedAt.UTC().Format(time.RFC3339Nano), r.Total, r.Success, r.Exists, r.Failed, r.SuccessRate, r.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", r.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run %s: run not found", r.ID)
	}
	return nil
}

// Runs returns up to limit runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, venue, year, event_type, started_at, COALESCE(finished_at, ''),
			total, success, exists_count, failed, success_rate
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Venue, &r.Year, &r.EventType, &started, &finished,
			&r.Total, &r.Success, &r.Exists, &r.Failed, &r.SuccessRate); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recently started run or ErrNoRuns.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	runs, err := s.Runs(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNoRuns
	}
	return runs[0], nil
}

// Outcomes returns the papers recorded for runID with the given status,
// or all of them when status is empty, ordered by paper id.
func (s *Store) Outcomes(ctx context.Context, runID string, status types.Status) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_id, COALESCE(title, ''), COALESCE(authors, ''), status, COALESCE(method, ''),
			COALESCE(reason, ''), COALESCE(detail, ''), COALESCE(pdf_url, ''), COALESCE(local_path, ''), COALESCE(pdf_pages, 0)
		 FROM outcomes WHERE run_id = ? AND (? = '' OR status = ?) ORDER BY paper_id`,
		runID, string(status), string(status))
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		var (
			p                      types.Paper
			status, method, reason string
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Authors, &status, &method, &reason, &p.FailureDetail,
			&p.PDFURL, &p.LocalPDFPath, &p.PDFPages); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		p.DownloadStatus = types.Status(status)
		p.DownloadMethod = types.Method(method)
		p.FailureReason = types.FailureReason(reason)
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// MethodCounts returns the number of successful downloads per method.
func (s *Store) MethodCounts(ctx context.Context, runID string) (map[types.Method]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT method, count(*) FROM outcomes WHERE run_id = ? AND status = ? GROUP BY method`,
		runID, string(types.StatusSuccess))
	if err != nil {
		return nil, fmt.Errorf("querying method counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.Method]int)
	for rows.Next() {
		var (
			method string
			n      int
		)
		if err := rows.Scan(&method, &n); err != nil {
			return nil, fmt.Errorf("scanning method count: %w", err)
		}
		counts[types.Method(method)] = n
	}
	return counts, rows.Err()
}
