package aggregate

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citylab/crimetab/internal/schema"
	"github.com/citylab/crimetab/internal/table"
)

func TestHourSeries_FullDayAxis(t *testing.T) {
	tbl := buildTable(t, []string{schema.ColHour},
		[]table.Value{table.Int(0)},
		[]table.Value{table.Int(23)},
		[]table.Value{table.Int(23)},
		[]table.Value{table.Unparseable("x")},
	)

	s := HourSeries(tbl)
	require.Len(t, s.Labels, 24)
	require.Len(t, s.Counts, 24)

	for h := 0; h < 24; h++ {
		assert.Equal(t, strconv.Itoa(h), s.Labels[h])
	}
	assert.Equal(t, 1, s.Counts[0])
	assert.Equal(t, 0, s.Counts[12], "quiet hours appear with zero")
	assert.Equal(t, 2, s.Counts[23])
}

func TestDayOfWeekSeries_SundayFirst(t *testing.T) {
	tbl := buildTable(t, []string{schema.ColDayOfWeek},
		[]table.Value{table.String("Monday")},
		[]table.Value{table.String("Sunday")},
		[]table.Value{table.String("Monday")},
	)

	s := DayOfWeekSeries(tbl)
	require.Equal(t, []string{
		"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
	}, s.Labels)
	assert.Equal(t, []int{1, 2, 0, 0, 0, 0, 0}, s.Counts)
}

func TestShootingsByMonthSeries(t *testing.T) {
	tbl := buildTable(t, []string{schema.ColMonth, schema.ColIsShooting},
		[]table.Value{table.Int(7), table.Bool(true)},
		[]table.Value{table.Int(7), table.Bool(false)},
		[]table.Value{table.Int(12), table.Bool(true)},
	)

	s := ShootingsByMonthSeries(tbl)
	require.Len(t, s.Labels, 12)
	assert.Equal(t, "1", s.Labels[0])
	assert.Equal(t, "12", s.Labels[11])
	assert.Equal(t, 1, s.Counts[6], "only confirmed shootings count")
	assert.Equal(t, 1, s.Counts[11])
}
