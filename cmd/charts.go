package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/citylab/crimetab/internal/aggregate"
	"github.com/citylab/crimetab/internal/export"
)

var (
	chartsOut    string
	chartsFormat string
)

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "Emit the chart-ready series (hour, day-of-week, shootings by month)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		tbl, _, err := loadLatestSnapshot(ctx)
		if err != nil {
			return err
		}

		series := []aggregate.Series{
			aggregate.HourSeries(tbl),
			aggregate.DayOfWeekSeries(tbl),
			aggregate.ShootingsByMonthSeries(tbl),
		}

		switch chartsFormat {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(series), "charts: encode json")
		case "csv":
			if err := os.MkdirAll(chartsOut, 0o755); err != nil {
				return eris.Wrapf(err, "charts: create dir %s", chartsOut)
			}
			for _, s := range series {
				path, err := export.WriteSeriesCSV(chartsOut, s)
				if err != nil {
					return err
				}
				zap.L().Info("series written", zap.String("path", path))
			}
			return nil
		default:
			return eris.Errorf("charts: unknown format %q", chartsFormat)
		}
	},
}

func init() {
	chartsCmd.Flags().StringVar(&chartsOut, "out", "charts", "output directory for csv format")
	chartsCmd.Flags().StringVar(&chartsFormat, "format", "csv", "output format: csv or json")
	rootCmd.AddCommand(chartsCmd)
}
