// Package aggregate is a small library of pure grouped-summary
// operations over the enriched incident table. Every operation takes
// the table as an explicit read-only input and returns a fresh result;
// nothing here mutates shared state, so results are reproducible run
// to run, including tie-break order.
package aggregate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/citylab/crimetab/internal/schema"
	"github.com/citylab/crimetab/internal/table"
)

// Filter selects rows for an aggregation. A nil Filter keeps every row.
type Filter func(row table.Row) bool

// GroupCount is one group's row count.
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Options controls group-key handling. By default rows whose grouping
// cell is a sentinel (missing, null, unparseable) are excluded so they
// cannot pollute rankings; the exclusion is counted, never silent.
// KeepUnknown instead keeps them as their own visible buckets.
type Options struct {
	KeepUnknown bool
	// ByKey sorts the result ascending by group key instead of the
	// default descending-by-count ranking order.
	ByKey bool
}

// Grouped is the result of a grouped count. Total is the number of rows
// counted into Groups; Excluded is the number of rows skipped because
// their grouping cell was a sentinel.
type Grouped struct {
	Groups   []GroupCount `json:"groups"`
	Total    int          `json:"total"`
	Excluded int          `json:"excluded"`
}

// CountByGroup groups rows by one column and counts them. Ranking order
// is count descending with ties broken by group key ascending, so "top
// N" claims are reproducible.
func CountByGroup(tbl *table.Table, col string, filter Filter, opts Options) Grouped {
	counts := map[string]int{}
	var res Grouped

	for i := 0; i < tbl.Len(); i++ {
		row := tbl.Row(i)
		if filter != nil && !filter(row) {
			continue
		}
		v := row.Get(col)
		if !v.Known() && !opts.KeepUnknown {
			res.Excluded++
			continue
		}
		counts[v.Text()]++
		res.Total++
	}

	res.Groups = make([]GroupCount, 0, len(counts))
	for k, c := range counts {
		res.Groups = append(res.Groups, GroupCount{Key: k, Count: c})
	}
	if opts.ByKey {
		sort.Slice(res.Groups, func(a, b int) bool {
			return compareKeys(res.Groups[a].Key, res.Groups[b].Key) < 0
		})
	} else {
		sortRanked(res.Groups)
	}
	return res
}

// TopN truncates a ranked CountByGroup to the n largest groups.
func TopN(tbl *table.Table, col string, filter Filter, opts Options, n int) Grouped {
	opts.ByKey = false
	res := CountByGroup(tbl, col, filter, opts)
	if n >= 0 && len(res.Groups) > n {
		res.Groups = res.Groups[:n]
	}
	return res
}

// Top1 returns the single deterministic winner, or nil if no rows
// qualified.
func Top1(tbl *table.Table, col string, filter Filter, opts Options) *GroupCount {
	res := TopN(tbl, col, filter, opts, 1)
	if len(res.Groups) == 0 {
		return nil
	}
	g := res.Groups[0]
	return &g
}

// Winner is the inner group with the maximum count within one outer
// group.
type Winner struct {
	Outer string `json:"outer"`
	Inner string `json:"inner"`
	Count int    `json:"count"`
}

// NestedTop1 groups rows by (outer, inner), then picks the inner key
// with the maximum count for each outer key. Ties resolve by inner key
// ascending, the same rule as TopN. The result is ordered by outer key
// ascending. Rows where either cell is a sentinel are excluded unless
// KeepUnknown is set.
func NestedTop1(tbl *table.Table, outerCol, innerCol string, filter Filter, opts Options) []Winner {
	type pair struct{ outer, inner string }
	counts := map[pair]int{}

	for i := 0; i < tbl.Len(); i++ {
		row := tbl.Row(i)
		if filter != nil && !filter(row) {
			continue
		}
		ov, iv := row.Get(outerCol), row.Get(innerCol)
		if (!ov.Known() || !iv.Known()) && !opts.KeepUnknown {
			continue
		}
		counts[pair{ov.Text(), iv.Text()}]++
	}

	best := map[string]Winner{}
	for p, c := range counts {
		cur, ok := best[p.outer]
		if !ok || c > cur.Count || (c == cur.Count && compareKeys(p.inner, cur.Inner) < 0) {
			best[p.outer] = Winner{Outer: p.outer, Inner: p.inner, Count: c}
		}
	}

	out := make([]Winner, 0, len(best))
	for _, w := range best {
		out = append(out, w)
	}
	sort.Slice(out, func(a, b int) bool {
		return compareKeys(out[a].Outer, out[b].Outer) < 0
	})
	return out
}

// FilteredCount counts rows matching the filter.
func FilteredCount(tbl *table.Table, filter Filter) int {
	n := 0
	for i := 0; i < tbl.Len(); i++ {
		if filter == nil || filter(tbl.Row(i)) {
			n++
		}
	}
	return n
}

// ShootingOnly keeps rows whose derived shooting flag is confirmed
// true. Unknown (missing-flag) rows do not count as shootings.
func ShootingOnly(row table.Row) bool {
	b, ok := row.Get(schema.ColIsShooting).BoolVal()
	return ok && b
}

// DescriptionIs matches the offense description exactly.
func DescriptionIs(desc string) Filter {
	return func(row table.Row) bool {
		s, ok := row.Get(schema.ColOffenseDesc).StringVal()
		return ok && s == desc
	}
}

// And combines filters conjunctively.
func And(filters ...Filter) Filter {
	return func(row table.Row) bool {
		for _, f := range filters {
			if f != nil && !f(row) {
				return false
			}
		}
		return true
	}
}

// sortRanked orders groups count descending, ties by key ascending.
func sortRanked(groups []GroupCount) {
	sort.Slice(groups, func(a, b int) bool {
		if groups[a].Count != groups[b].Count {
			return groups[a].Count > groups[b].Count
		}
		return compareKeys(groups[a].Key, groups[b].Key) < 0
	})
}

// compareKeys orders group keys ascending, numerically when both keys
// are integers (so month "2" sorts before "10"), lexically otherwise.
func compareKeys(a, b string) int {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
