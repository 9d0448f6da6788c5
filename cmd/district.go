package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/citylab/crimetab/internal/aggregate"
)

var (
	districtName     string
	districtCodes    string
	districtAllYears bool
)

var districtCmd = &cobra.Command{
	Use:   "district",
	Short: "Yearly incident counts for one district and offense-code set",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		codes, err := parseCodes(districtCodes)
		if err != nil {
			return err
		}

		tbl, _, err := loadLatestSnapshot(ctx)
		if err != nil {
			return err
		}

		counts := aggregate.DistrictYearCounts(tbl, districtName, codes, districtAllYears)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "YEAR\tCOUNT\n")
		for _, yc := range counts {
			fmt.Fprintf(w, "%d\t%d\n", yc.Year, yc.Count)
		}
		return w.Flush()
	},
}

func parseCodes(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var codes []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, eris.Wrapf(err, "district: bad offense code %q", part)
		}
		codes = append(codes, n)
	}
	return codes, nil
}

func init() {
	districtCmd.Flags().StringVar(&districtName, "district", "", "district identifier (required)")
	districtCmd.Flags().StringVar(&districtCodes, "codes", "", "comma-separated offense codes (empty = all)")
	districtCmd.Flags().BoolVar(&districtAllYears, "all-years", true, "include zero-count years across the observed range")
	_ = districtCmd.MarkFlagRequired("district")
	rootCmd.AddCommand(districtCmd)
}
