package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citylab/crimetab/internal/derive"
	"github.com/citylab/crimetab/internal/ingest"
	"github.com/citylab/crimetab/internal/schema"
	"github.com/citylab/crimetab/internal/store"
	"github.com/citylab/crimetab/internal/table"
)

var (
	ingestDir     string
	ingestNoStore bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Read, normalize, merge, and derive the yearly incident CSVs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		dir := ingestDir
		if dir == "" {
			dir = cfg.Data.Dir
		}

		tbl, res, stats, err := runPipeline(ctx, dir)
		if err != nil {
			return err
		}

		zap.L().Info("ingest complete",
			zap.Int("rows", tbl.Len()),
			zap.Int("columns", len(tbl.Columns())),
			zap.Int("parsed_timestamps", stats.ParsedTimestamps),
			zap.Int("bad_timestamps", stats.BadTimestamps),
			zap.Int("calendar_mismatches", stats.CalendarMismatches),
			zap.Int("unknown_shooting_flags", stats.UnknownShooting),
		)

		if ingestNoStore {
			return nil
		}

		st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "ingest: open store")
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.CreateRun(ctx, dir, cfg.Data.Years)
		if err != nil {
			return err
		}
		if err := st.SaveSnapshot(ctx, run.ID, tbl); err != nil {
			_ = st.FailRun(ctx, run.ID, err)
			return err
		}
		run.PerYear = res.PerYear
		run.Rows = tbl.Len()
		run.Stats = stats
		if err := st.CompleteRun(ctx, run); err != nil {
			return err
		}

		zap.L().Info("snapshot stored",
			zap.String("run_id", run.ID),
			zap.String("driver", cfg.Store.Driver),
		)
		return nil
	},
}

// runPipeline executes the full normalize → merge → derive flow over
// the yearly files in dir.
func runPipeline(ctx context.Context, dir string) (*table.Table, *ingest.Result, derive.Stats, error) {
	aliases, err := schema.LoadAliases(cfg.Data.Aliases)
	if err != nil {
		return nil, nil, derive.Stats{}, err
	}

	sources, err := ingest.DiscoverSources(dir, cfg.Data.Years)
	if err != nil {
		return nil, nil, derive.Stats{}, err
	}

	res, err := ingest.Run(ctx, sources, ingest.Options{
		Aliases:     aliases,
		Concurrency: cfg.Data.Concurrency,
	})
	if err != nil {
		return nil, nil, derive.Stats{}, err
	}

	tbl, stats, err := derive.Features(res.Merged)
	if err != nil {
		return nil, nil, stats, eris.Wrap(err, "ingest: derive features")
	}
	return tbl, res, stats, nil
}

// loadLatestSnapshot fetches the most recent completed run's table for
// the read-only commands.
func loadLatestSnapshot(ctx context.Context) (*table.Table, *store.Run, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, eris.Wrap(err, "open store")
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return nil, nil, err
	}

	run, err := st.LatestRun(ctx)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, eris.New("no completed ingest run found; run `crimetab ingest` first")
	}
	tbl, err := st.LoadSnapshot(ctx, run.ID)
	if err != nil {
		return nil, nil, err
	}
	return tbl, run, nil
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "directory with yearly CSVs (default from config)")
	ingestCmd.Flags().BoolVar(&ingestNoStore, "no-store", false, "run the pipeline without persisting a snapshot")
	rootCmd.AddCommand(ingestCmd)
}
