package aggregate

import (
	"github.com/citylab/crimetab/internal/schema"
	"github.com/citylab/crimetab/internal/table"
)

// AutoTheftDescription is the offense description used by the fixed
// report's "district with most auto thefts" row.
const AutoTheftDescription = "AUTO THEFT"

// Report is the fixed summary set consumed by the presentation layer.
type Report struct {
	ShootingsByYear        Grouped     `json:"shootings_by_year"`
	OffenseGroups          Grouped     `json:"offense_groups"`
	TopDistricts           Grouped     `json:"top_districts"`
	TopMonths              Grouped     `json:"top_months"`
	AutoTheftDistrict      *GroupCount `json:"auto_theft_district,omitempty"`
	ShootingDistrict       *GroupCount `json:"shooting_district,omitempty"`
	ShootingDistrictByYear []Winner    `json:"shooting_district_by_year"`
}

// BuildReport computes every fixed summary over a frozen snapshot.
// Rows with sentinel grouping cells are excluded per aggregation and
// accounted for in each Grouped's Excluded field.
func BuildReport(tbl *table.Table) *Report {
	return &Report{
		ShootingsByYear:        CountByGroup(tbl, schema.ColYear, ShootingOnly, Options{ByKey: true}),
		OffenseGroups:          CountByGroup(tbl, schema.ColOffenseGroup, nil, Options{}),
		TopDistricts:           TopN(tbl, schema.ColDistrict, nil, Options{}, 5),
		TopMonths:              TopN(tbl, schema.ColMonth, nil, Options{}, 5),
		AutoTheftDistrict:      Top1(tbl, schema.ColDistrict, DescriptionIs(AutoTheftDescription), Options{}),
		ShootingDistrict:       Top1(tbl, schema.ColDistrict, ShootingOnly, Options{}),
		ShootingDistrictByYear: NestedTop1(tbl, schema.ColYear, schema.ColDistrict, ShootingOnly, Options{}),
	}
}
