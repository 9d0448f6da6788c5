// Package store persists ingest runs and their unified-table snapshots
// so report, charts, district, and serve operate on a frozen snapshot
// without re-ingesting. SQLite is the default backend; Postgres is
// available for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/citylab/crimetab/internal/derive"
	"github.com/citylab/crimetab/internal/table"
)

// RunStatus is the lifecycle state of an ingest run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records one ingest execution and its row accounting.
type Run struct {
	ID          string       `json:"id"`
	SourceDir   string       `json:"source_dir"`
	Years       []int        `json:"years"`
	PerYear     map[int]int  `json:"per_year"`
	Rows        int          `json:"rows"`
	Stats       derive.Stats `json:"stats"`
	Status      RunStatus    `json:"status"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// Store is the persistence interface for ingest runs and snapshots.
type Store interface {
	CreateRun(ctx context.Context, sourceDir string, years []int) (*Run, error)
	CompleteRun(ctx context.Context, run *Run) error
	FailRun(ctx context.Context, runID string, cause error) error
	LatestRun(ctx context.Context) (*Run, error)

	// SaveSnapshot persists the unified+derived table for a run.
	// Sentinel cells survive the round-trip unchanged.
	SaveSnapshot(ctx context.Context, runID string, tbl *table.Table) error
	LoadSnapshot(ctx context.Context, runID string) (*table.Table, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "sqlite":
		if dsn == "" {
			dsn = "crimetab.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
