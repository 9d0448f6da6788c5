package aggregate

import (
	"sort"

	"github.com/citylab/crimetab/internal/schema"
	"github.com/citylab/crimetab/internal/table"
)

// YearCount is one year's incident count.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// DistrictYearCounts counts incidents per year for one district,
// restricted to the given offense codes. An empty code set matches all
// offenses. With allYears set, every year observed anywhere in the
// table appears, zero counts included; otherwise only years with at
// least one match are reported. Rows without a derived year are
// excluded (they have no year to land in). Output is ascending by year.
func DistrictYearCounts(tbl *table.Table, district string, codes []int, allYears bool) []YearCount {
	codeSet := make(map[int64]bool, len(codes))
	for _, c := range codes {
		codeSet[int64(c)] = true
	}

	counts := map[int]int{}
	observed := map[int]bool{}

	for i := 0; i < tbl.Len(); i++ {
		row := tbl.Row(i)

		year, ok := row.Get(schema.ColYear).IntVal()
		if !ok {
			continue
		}
		observed[int(year)] = true

		d, ok := row.Get(schema.ColDistrict).StringVal()
		if !ok || d != district {
			continue
		}
		if len(codeSet) > 0 {
			code, ok := row.Get(schema.ColOffenseCode).IntVal()
			if !ok || !codeSet[code] {
				continue
			}
		}
		counts[int(year)]++
	}

	var years []int
	if allYears {
		for y := range observed {
			years = append(years, y)
		}
	} else {
		for y := range counts {
			years = append(years, y)
		}
	}
	sort.Ints(years)

	out := make([]YearCount, 0, len(years))
	for _, y := range years {
		out = append(out, YearCount{Year: y, Count: counts[y]})
	}
	return out
}
