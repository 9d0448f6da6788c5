// Package derive appends the temporal and shooting features to the
// unified incident table. Rows are never dropped: a timestamp that
// fails to parse leaves its calendar features as the unparseable
// sentinel, which downstream aggregation sees as its own bucket.
package derive

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/citylab/crimetab/internal/schema"
	"github.com/citylab/crimetab/internal/table"
)

// TimeLayout is the canonical occurred-on form used by the source
// system's exports. Some years emit the ISO 'T' separator instead.
const (
	TimeLayout    = "2006-01-02 15:04:05"
	timeLayoutISO = "2006-01-02T15:04:05"
)

// Shift buckets. Hours partition into closed-open intervals:
// [0,8) Night, [8,16) Day, [16,24) Evening.
const (
	ShiftNight   = "Night"
	ShiftDay     = "Day"
	ShiftEvening = "Evening"
)

// Stats accounts for what derivation saw. CalendarMismatches counts
// rows where a pre-supplied calendar column disagreed with the value
// extracted from the timestamp; the extracted value wins but the
// disagreement is surfaced, never silently resolved.
type Stats struct {
	Rows               int `json:"rows"`
	ParsedTimestamps   int `json:"parsed_timestamps"`
	BadTimestamps      int `json:"bad_timestamps"`
	CalendarMismatches int `json:"calendar_mismatches"`
	UnknownShooting    int `json:"unknown_shooting"`
}

const mismatchLogLimit = 5

// Features returns a new table with YEAR, MONTH, HOUR, and DAY_OF_WEEK
// reconciled against the parsed timestamp, and SHIFT and IS_SHOOTING
// appended. Existing columns are never removed or renamed.
func Features(tbl *table.Table) (*table.Table, Stats, error) {
	n := tbl.Len()
	stats := Stats{Rows: n}

	years := make([]table.Value, n)
	months := make([]table.Value, n)
	hours := make([]table.Value, n)
	days := make([]table.Value, n)
	shifts := make([]table.Value, n)
	shootings := make([]table.Value, n)

	logged := 0
	for i := 0; i < n; i++ {
		row := tbl.Row(i)

		ts, ok := parseOccurredOn(row.Get(schema.ColOccurredOn))
		if ok {
			stats.ParsedTimestamps++
			years[i] = table.Int(int64(ts.Year()))
			months[i] = table.Int(int64(ts.Month()))
			hours[i] = table.Int(int64(ts.Hour()))
			days[i] = table.String(ts.Weekday().String())

			if diverges(row, years[i], months[i], hours[i], days[i]) {
				stats.CalendarMismatches++
				if logged < mismatchLogLimit {
					logged++
					zap.L().Warn("derive: pre-supplied calendar disagrees with timestamp",
						zap.Int("row", i),
						zap.String("occurred_on", row.Get(schema.ColOccurredOn).Text()),
					)
				}
			}
		} else {
			stats.BadTimestamps++
			// Keep a pre-supplied calendar value when the source gave
			// one; otherwise the feature is unknown.
			years[i] = keepOrUnknown(row.Get(schema.ColYear))
			months[i] = keepOrUnknown(row.Get(schema.ColMonth))
			hours[i] = keepOrUnknown(row.Get(schema.ColHour))
			days[i] = keepOrUnknown(row.Get(schema.ColDayOfWeek))
		}

		shifts[i] = shiftOf(hours[i])

		sh := shootingOf(row.Get(schema.ColShooting))
		if sh.Kind() == table.KindMissing {
			stats.UnknownShooting++
		}
		shootings[i] = sh
	}

	out := tbl
	var err error
	for _, c := range []struct {
		name string
		vals []table.Value
	}{
		{schema.ColYear, years},
		{schema.ColMonth, months},
		{schema.ColHour, hours},
		{schema.ColDayOfWeek, days},
	} {
		if out.HasColumn(c.name) {
			out, err = out.WithReplacedColumn(c.name, c.vals)
		} else {
			out, err = out.WithColumn(c.name, c.vals)
		}
		if err != nil {
			return nil, stats, err
		}
	}
	if out, err = out.WithColumn(schema.ColShift, shifts); err != nil {
		return nil, stats, err
	}
	if out, err = out.WithColumn(schema.ColIsShooting, shootings); err != nil {
		return nil, stats, err
	}

	return out, stats, nil
}

func parseOccurredOn(v table.Value) (time.Time, bool) {
	s, ok := v.StringVal()
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{TimeLayout, timeLayoutISO} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// diverges reports whether any pre-supplied calendar column disagrees
// with the derived values. Absent and sentinel cells never diverge.
func diverges(row table.Row, year, month, hour, day table.Value) bool {
	for _, pair := range []struct{ got, want table.Value }{
		{row.Get(schema.ColYear), year},
		{row.Get(schema.ColMonth), month},
		{row.Get(schema.ColHour), hour},
	} {
		if g, ok := pair.got.IntVal(); ok {
			if w, _ := pair.want.IntVal(); g != w {
				return true
			}
		}
	}
	if g, ok := row.Get(schema.ColDayOfWeek).StringVal(); ok {
		if w, _ := day.StringVal(); !strings.EqualFold(g, w) {
			return true
		}
	}
	return false
}

func keepOrUnknown(v table.Value) table.Value {
	if v.Known() {
		return v
	}
	return table.Unparseable(v.Raw())
}

// shiftOf buckets an hour. Every valid hour lands in exactly one shift;
// anything else is unknown.
func shiftOf(hour table.Value) table.Value {
	h, ok := hour.IntVal()
	if !ok || h < 0 || h > 23 {
		return table.Unparseable(hour.Raw())
	}
	switch {
	case h < 8:
		return table.String(ShiftNight)
	case h < 16:
		return table.String(ShiftDay)
	default:
		return table.String(ShiftEvening)
	}
}

// shootingOf derives the tri-state shooting feature. Precedence follows
// the source encodings: the literal 'Y' form first, then the numeric 1
// form. Any other present value (including 0 and blank) is false. A
// year that never supplied the flag yields the missing sentinel rather
// than false, so missing-data volume stays visible.
func shootingOf(v table.Value) table.Value {
	switch v.Kind() {
	case table.KindMissing:
		return table.Missing()
	case table.KindString:
		s, _ := v.StringVal()
		return table.Bool(strings.EqualFold(s, "Y"))
	case table.KindInt:
		n, _ := v.IntVal()
		return table.Bool(n == 1)
	default:
		return table.Bool(false)
	}
}
