package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citylab/crimetab/internal/schema"
	"github.com/citylab/crimetab/internal/table"
)

func reportFixture(t *testing.T) *table.Table {
	t.Helper()
	cols := []string{
		schema.ColYear, schema.ColMonth, schema.ColDistrict,
		schema.ColOffenseGroup, schema.ColOffenseDesc, schema.ColIsShooting,
	}
	tbl, err := table.New(cols)
	require.NoError(t, err)

	add := func(year, month int64, district, group, desc string, shooting bool) {
		require.NoError(t, tbl.AppendRow([]table.Value{
			table.Int(year), table.Int(month), table.String(district),
			table.String(group), table.String(desc), table.Bool(shooting),
		}))
	}

	add(2019, 7, "B3", "Larceny", "AUTO THEFT", true)
	add(2019, 7, "B3", "Larceny", "AUTO THEFT", true)
	add(2019, 8, "C11", "Vandalism", "VANDALISM", true)
	add(2020, 7, "B3", "Larceny", "AUTO THEFT", true)
	add(2020, 1, "A1", "Vandalism", "VANDALISM", false)
	return tbl
}

func TestBuildReport(t *testing.T) {
	rep := BuildReport(reportFixture(t))

	// Shooting counts per year, ascending by year.
	require.Len(t, rep.ShootingsByYear.Groups, 2)
	assert.Equal(t, GroupCount{Key: "2019", Count: 3}, rep.ShootingsByYear.Groups[0])
	assert.Equal(t, GroupCount{Key: "2020", Count: 1}, rep.ShootingsByYear.Groups[1])

	assert.Equal(t, "Larceny", rep.OffenseGroups.Groups[0].Key)

	require.NotNil(t, rep.AutoTheftDistrict)
	assert.Equal(t, GroupCount{Key: "B3", Count: 3}, *rep.AutoTheftDistrict)

	require.NotNil(t, rep.ShootingDistrict)
	assert.Equal(t, "B3", rep.ShootingDistrict.Key)

	require.Len(t, rep.ShootingDistrictByYear, 2)
	assert.Equal(t, Winner{Outer: "2019", Inner: "B3", Count: 2}, rep.ShootingDistrictByYear[0])
	assert.Equal(t, Winner{Outer: "2020", Inner: "B3", Count: 1}, rep.ShootingDistrictByYear[1])
}

func TestBuildReport_EmptyTable(t *testing.T) {
	tbl, err := table.New([]string{schema.ColYear, schema.ColDistrict})
	require.NoError(t, err)

	rep := BuildReport(tbl)
	assert.Empty(t, rep.ShootingsByYear.Groups)
	assert.Nil(t, rep.AutoTheftDistrict)
	assert.Nil(t, rep.ShootingDistrict)
	assert.Empty(t, rep.ShootingDistrictByYear)
}
