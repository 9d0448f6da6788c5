package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/citylab/crimetab/internal/table"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures
// WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ingest_runs (
	id           TEXT PRIMARY KEY,
	source_dir   TEXT NOT NULL,
	years        TEXT NOT NULL,
	per_year     TEXT,
	row_count    INTEGER NOT NULL DEFAULT 0,
	stats        TEXT,
	columns      TEXT,
	status       TEXT NOT NULL DEFAULT 'running',
	error        TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS snapshot_rows (
	run_id  TEXT NOT NULL REFERENCES ingest_runs(id),
	row_idx INTEGER NOT NULL,
	cells   TEXT NOT NULL,
	PRIMARY KEY (run_id, row_idx)
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_status ON ingest_runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, sourceDir string, years []int) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	yearsJSON, err := marshalJSON(years)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, source_dir, years, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, sourceDir, yearsJSON, string(RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &Run{
		ID:        id,
		SourceDir: sourceDir,
		Years:     years,
		Status:    RunStatusRunning,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, run *Run) error {
	perYearJSON, err := marshalJSON(run.PerYear)
	if err != nil {
		return err
	}
	statsJSON, err := marshalJSON(run.Stats)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET per_year = ?, row_count = ?, stats = ?, status = ?, completed_at = ? WHERE id = ?`,
		perYearJSON, run.Rows, statsJSON, string(RunStatusComplete), now, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", run.ID)
	}
	return checkRowsAffected(res, run.ID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, cause error) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(RunStatusFailed), cause.Error(), now, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_dir, years, COALESCE(per_year, ''), row_count, COALESCE(stats, ''), status, COALESCE(error, ''), created_at, completed_at
		 FROM ingest_runs WHERE status = ? ORDER BY created_at DESC LIMIT 1`,
		string(RunStatusComplete),
	)
	return scanRun(row)
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, runID string, tbl *table.Table) error {
	cols := tbl.Columns()
	colsJSON, err := marshalJSON(cols)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin snapshot tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`UPDATE ingest_runs SET columns = ? WHERE id = ?`, colsJSON, runID,
	); err != nil {
		return eris.Wrap(err, "sqlite: save snapshot columns")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_rows (run_id, row_idx, cells) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare snapshot insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i := 0; i < tbl.Len(); i++ {
		cells, err := encodeRow(tbl, i, cols)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, runID, i, cells); err != nil {
			return eris.Wrapf(err, "sqlite: insert snapshot row %d", i)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit snapshot")
}

func (s *SQLiteStore) LoadSnapshot(ctx context.Context, runID string) (*table.Table, error) {
	var colsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(columns, '') FROM ingest_runs WHERE id = ?`, runID,
	).Scan(&colsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Errorf("sqlite: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load snapshot columns")
	}
	if colsJSON == "" {
		return nil, eris.Errorf("sqlite: run %s has no snapshot", runID)
	}

	var cols []string
	if err := unmarshalJSON(colsJSON, &cols); err != nil {
		return nil, err
	}
	tbl, err := table.New(cols)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cells FROM snapshot_rows WHERE run_id = ? ORDER BY row_idx`, runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load snapshot rows")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot row")
		}
		vals, err := decodeRow(cells, len(cols))
		if err != nil {
			return nil, err
		}
		if err := tbl.AppendRow(vals); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate snapshot rows")
	}
	return tbl, nil
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	var yearsJSON, perYearJSON, statsJSON, status string
	var completed sql.NullTime

	err := row.Scan(&r.ID, &r.SourceDir, &yearsJSON, &perYearJSON, &r.Rows,
		&statsJSON, &status, &r.Error, &r.CreatedAt, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan run")
	}

	if err := unmarshalJSON(yearsJSON, &r.Years); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(perYearJSON, &r.PerYear); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(statsJSON, &r.Stats); err != nil {
		return nil, err
	}
	r.Status = RunStatus(status)
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}
