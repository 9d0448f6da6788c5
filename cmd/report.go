package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/citylab/crimetab/internal/aggregate"
	"github.com/citylab/crimetab/internal/export"
)

var (
	reportFormat string
	reportXLSX   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the fixed summary set from the latest snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		tbl, run, err := loadLatestSnapshot(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("snapshot loaded", zap.String("run_id", run.ID), zap.Int("rows", tbl.Len()))

		report := aggregate.BuildReport(tbl)

		if reportXLSX != "" {
			if err := export.WriteReportXLSX(reportXLSX, report); err != nil {
				return err
			}
			zap.L().Info("report workbook written", zap.String("path", reportXLSX))
		}

		switch reportFormat {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(report), "report: encode json")
		case "table":
			printReport(report)
			return nil
		default:
			return eris.Errorf("report: unknown format %q", reportFormat)
		}
	},
}

func printReport(r *aggregate.Report) {
	p := message.NewPrinter(language.English)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	printGrouped(w, p, "Shootings by year", "YEAR", r.ShootingsByYear)
	printGrouped(w, p, "Incidents by offense code group", "GROUP", r.OffenseGroups)
	printGrouped(w, p, "Top 5 districts by incidents", "DISTRICT", r.TopDistricts)
	printGrouped(w, p, "Top 5 months by incidents", "MONTH", r.TopMonths)

	fmt.Fprintln(w, "== Leaders ==")
	if r.AutoTheftDistrict != nil {
		p.Fprintf(w, "District with most auto thefts\t%s\t%d\n", r.AutoTheftDistrict.Key, r.AutoTheftDistrict.Count)
	}
	if r.ShootingDistrict != nil {
		p.Fprintf(w, "District with most shootings\t%s\t%d\n", r.ShootingDistrict.Key, r.ShootingDistrict.Count)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "== District with most shootings, per year ==")
	fmt.Fprintln(w, "YEAR\tDISTRICT\tSHOOTINGS")
	for _, win := range r.ShootingDistrictByYear {
		p.Fprintf(w, "%s\t%s\t%d\n", win.Outer, win.Inner, win.Count)
	}

	_ = w.Flush()
}

func printGrouped(w *tabwriter.Writer, p *message.Printer, title, keyHeader string, g aggregate.Grouped) {
	fmt.Fprintf(w, "== %s ==\n", title)
	fmt.Fprintf(w, "%s\tCOUNT\n", keyHeader)
	for _, gc := range g.Groups {
		p.Fprintf(w, "%s\t%d\n", gc.Key, gc.Count)
	}
	if g.Excluded > 0 {
		p.Fprintf(w, "(excluded %d rows with missing/unknown %s)\n", g.Excluded, keyHeader)
	}
	fmt.Fprintln(w)
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "table", "output format: table or json")
	reportCmd.Flags().StringVar(&reportXLSX, "xlsx", "", "also write the report as an XLSX workbook")
	rootCmd.AddCommand(reportCmd)
}
