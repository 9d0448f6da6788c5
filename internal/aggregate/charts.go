package aggregate

import (
	"strconv"

	"github.com/citylab/crimetab/internal/schema"
	"github.com/citylab/crimetab/internal/table"
)

// Series is a chart-ready labeled count vector. Labels are fixed and
// complete for each series (every hour, day, month appears even with a
// zero count), so the presentation layer never has to fill gaps.
type Series struct {
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

var weekdays = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// HourSeries counts incidents per hour of day, 0 through 23.
func HourSeries(tbl *table.Table) Series {
	s := Series{Name: "incidents_by_hour"}
	grouped := CountByGroup(tbl, schema.ColHour, nil, Options{})
	byKey := indexGroups(grouped)
	for h := 0; h < 24; h++ {
		label := strconv.Itoa(h)
		s.Labels = append(s.Labels, label)
		s.Counts = append(s.Counts, byKey[label])
	}
	return s
}

// DayOfWeekSeries counts incidents per weekday, Sunday through
// Saturday.
func DayOfWeekSeries(tbl *table.Table) Series {
	s := Series{Name: "incidents_by_day_of_week"}
	grouped := CountByGroup(tbl, schema.ColDayOfWeek, nil, Options{})
	byKey := indexGroups(grouped)
	for _, d := range weekdays {
		s.Labels = append(s.Labels, d)
		s.Counts = append(s.Counts, byKey[d])
	}
	return s
}

// ShootingsByMonthSeries counts confirmed shootings per month, 1
// through 12.
func ShootingsByMonthSeries(tbl *table.Table) Series {
	s := Series{Name: "shootings_by_month"}
	grouped := CountByGroup(tbl, schema.ColMonth, ShootingOnly, Options{})
	byKey := indexGroups(grouped)
	for m := 1; m <= 12; m++ {
		label := strconv.Itoa(m)
		s.Labels = append(s.Labels, label)
		s.Counts = append(s.Counts, byKey[label])
	}
	return s
}

func indexGroups(g Grouped) map[string]int {
	m := make(map[string]int, len(g.Groups))
	for _, gc := range g.Groups {
		m[gc.Key] = gc.Count
	}
	return m
}
