package ledger

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/joseph-ayodele/hocr-report/internal/report"
)

// Run is one recorded batch run.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	SourceDir    string
	ReportPaths  []string
	FilesScanned int
	FilesSkipped int
	Rows         int
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS report_runs (
		id            TEXT PRIMARY KEY,
		started_at    TIMESTAMP NOT NULL,
		finished_at   TIMESTAMP NOT NULL,
		source_dir    TEXT NOT NULL,
		report_paths  TEXT NOT NULL,
		files_scanned INTEGER NOT NULL,
		files_skipped INTEGER NOT NULL,
		row_count     INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS report_rows (
		run_id          TEXT NOT NULL REFERENCES report_runs(id),
		position        INTEGER NOT NULL,
		source_file     TEXT NOT NULL,
		output_dir      TEXT NOT NULL,
		page_number     INTEGER NOT NULL,
		text_percentage DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
}

// Migrate creates the ledger tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return ledgerErr("migrate", err)
		}
	}
	return nil
}

// RecordRun stores a run and its rows (in report order) in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, rows []report.Row) error {
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledgerErr("begin", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback() // no-op after commit
	}(tx)

	_, err = tx.ExecContext(ctx, s.bind(`INSERT INTO report_runs
		(id, started_at, finished_at, source_dir, report_paths, files_scanned, files_skipped, row_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.SourceDir,
		strings.Join(run.ReportPaths, "\n"), run.FilesScanned, run.FilesSkipped, len(rows),
	)
	if err != nil {
		return ledgerErr("insert run", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.bind(`INSERT INTO report_rows
		(run_id, position, source_file, output_dir, page_number, text_percentage)
		VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return ledgerErr("prepare rows", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, run.ID, i, r.SourceFile, r.OutputDir, r.PageNumber, r.TextPercentage); err != nil {
			return ledgerErr("insert row", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return ledgerErr("commit", err)
	}

	s.logger.Info("ledger.run.recorded",
		"run_id", run.ID,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// RecentRuns lists the newest runs first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rs, err := s.db.QueryContext(ctx, s.bind(`SELECT id, started_at, finished_at, source_dir, report_paths,
		files_scanned, files_skipped, row_count
		FROM report_runs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, ledgerErr("list runs", err)
	}
	defer rs.Close()

	var out []Run
	for rs.Next() {
		var r Run
		var paths string
		if err := rs.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.SourceDir, &paths,
			&r.FilesScanned, &r.FilesSkipped, &r.Rows); err != nil {
			return nil, ledgerErr("scan run", err)
		}
		if paths != "" {
			r.ReportPaths = strings.Split(paths, "\n")
		}
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		return nil, ledgerErr("list runs", err)
	}
	return out, nil
}

// RunRows returns a run's rows in the order they were reported.
func (s *Store) RunRows(ctx context.Context, runID string) ([]report.Row, error) {
	rs, err := s.db.QueryContext(ctx, s.bind(`SELECT source_file, output_dir, page_number, text_percentage
		FROM report_rows WHERE run_id = ? ORDER BY position`), runID)
	if err != nil {
		return nil, ledgerErr("list rows", err)
	}
	defer rs.Close()

	var out []report.Row
	for rs.Next() {
		var r report.Row
		if err := rs.Scan(&r.SourceFile, &r.OutputDir, &r.PageNumber, &r.TextPercentage); err != nil {
			return nil, ledgerErr("scan row", err)
		}
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		return nil, ledgerErr("list rows", err)
	}
	return out, nil
}
