package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/citylab/crimetab/internal/db"
	"github.com/citylab/crimetab/internal/table"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS ingest_runs (
	id           TEXT PRIMARY KEY,
	source_dir   TEXT NOT NULL,
	years        TEXT NOT NULL,
	per_year     TEXT,
	row_count    BIGINT NOT NULL DEFAULT 0,
	stats        TEXT,
	columns      TEXT,
	status       TEXT NOT NULL DEFAULT 'running',
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS snapshot_rows (
	run_id  TEXT NOT NULL REFERENCES ingest_runs(id),
	row_idx BIGINT NOT NULL,
	cells   TEXT NOT NULL,
	PRIMARY KEY (run_id, row_idx)
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_status ON ingest_runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, sourceDir string, years []int) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	yearsJSON, err := marshalJSON(years)
	if err != nil {
		return nil, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO ingest_runs (id, source_dir, years, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, sourceDir, yearsJSON, string(RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &Run{
		ID:        id,
		SourceDir: sourceDir,
		Years:     years,
		Status:    RunStatusRunning,
		CreatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, run *Run) error {
	perYearJSON, err := marshalJSON(run.PerYear)
	if err != nil {
		return err
	}
	statsJSON, err := marshalJSON(run.Stats)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE ingest_runs SET per_year = $1, row_count = $2, stats = $3, status = $4, completed_at = $5 WHERE id = $6`,
		perYearJSON, run.Rows, statsJSON, string(RunStatusComplete), time.Now().UTC(), run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", run.ID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, cause error) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ingest_runs SET status = $1, error = $2, completed_at = $3 WHERE id = $4`,
		string(RunStatusFailed), cause.Error(), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) LatestRun(ctx context.Context) (*Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source_dir, years, COALESCE(per_year, ''), row_count, COALESCE(stats, ''), status, COALESCE(error, ''), created_at, completed_at
		 FROM ingest_runs WHERE status = $1 ORDER BY created_at DESC LIMIT 1`,
		string(RunStatusComplete),
	)

	var r Run
	var yearsJSON, perYearJSON, statsJSON, status string
	var completed *time.Time

	err := row.Scan(&r.ID, &r.SourceDir, &yearsJSON, &perYearJSON, &r.Rows,
		&statsJSON, &status, &r.Error, &r.CreatedAt, &completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest run")
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
	r.CompletedAt = completed
	return &r, nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, runID string, tbl *table.Table) error {
	cols := tbl.Columns()
	colsJSON, err := marshalJSON(cols)
	if err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx,
		`UPDATE ingest_runs SET columns = $1 WHERE id = $2`, colsJSON, runID,
	); err != nil {
		return eris.Wrap(err, "postgres: save snapshot columns")
	}

	rows := make([][]any, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		cells, err := encodeRow(tbl, i, cols)
		if err != nil {
			return err
		}
		rows[i] = []any{runID, int64(i), cells}
	}

	n, err := db.CopyFrom(ctx, s.pool, "snapshot_rows", []string{"run_id", "row_idx", "cells"}, rows)
	if err != nil {
		return err
	}
	if int(n) != tbl.Len() {
		return eris.Errorf("postgres: copied %d of %d snapshot rows", n, tbl.Len())
	}
	return nil
}

func (s *PostgresStore) LoadSnapshot(ctx context.Context, runID string) (*table.Table, error) {
	var colsJSON string
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(columns, '') FROM ingest_runs WHERE id = $1`, runID,
	).Scan(&colsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load snapshot columns")
	}
	if colsJSON == "" {
		return nil, eris.Errorf("postgres: run %s has no snapshot", runID)
	}

	var cols []string
	if err := unmarshalJSON(colsJSON, &cols); err != nil {
		return nil, err
	}
	tbl, err := table.New(cols)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT cells FROM snapshot_rows WHERE run_id = $1 ORDER BY row_idx`, runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load snapshot rows")
	}
	defer rows.Close()

	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot row")
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
		return nil, eris.Wrap(err, "postgres: iterate snapshot rows")
	}
	return tbl, nil
}
