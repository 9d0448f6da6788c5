// Package export renders finished aggregate results to XLSX workbooks
// and CSV files for the presentation layer.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/citylab/crimetab/internal/aggregate"
)

// WriteReportXLSX writes the fixed report as a workbook, one sheet per
// summary table.
func WriteReportXLSX(path string, report *aggregate.Report) error {
	f := xlsx.NewFile()

	if err := addGroupedSheet(f, "Shootings by year", "Year", report.ShootingsByYear); err != nil {
		return err
	}
	if err := addGroupedSheet(f, "Offense groups", "Offense code group", report.OffenseGroups); err != nil {
		return err
	}
	if err := addGroupedSheet(f, "Top districts", "District", report.TopDistricts); err != nil {
		return err
	}
	if err := addGroupedSheet(f, "Top months", "Month", report.TopMonths); err != nil {
		return err
	}

	sheet, err := f.AddSheet("Leaders")
	if err != nil {
		return eris.Wrap(err, "export: add leaders sheet")
	}
	header := sheet.AddRow()
	header.AddCell().Value = "Summary"
	header.AddCell().Value = "Key"
	header.AddCell().Value = "Count"
	if report.AutoTheftDistrict != nil {
		row := sheet.AddRow()
		row.AddCell().Value = "District with most auto thefts"
		row.AddCell().Value = report.AutoTheftDistrict.Key
		row.AddCell().SetInt(report.AutoTheftDistrict.Count)
	}
	if report.ShootingDistrict != nil {
		row := sheet.AddRow()
		row.AddCell().Value = "District with most shootings"
		row.AddCell().Value = report.ShootingDistrict.Key
		row.AddCell().SetInt(report.ShootingDistrict.Count)
	}

	byYear, err := f.AddSheet("Shooting district by year")
	if err != nil {
		return eris.Wrap(err, "export: add by-year sheet")
	}
	h := byYear.AddRow()
	h.AddCell().Value = "Year"
	h.AddCell().Value = "District"
	h.AddCell().Value = "Shootings"
	for _, w := range report.ShootingDistrictByYear {
		row := byYear.AddRow()
		row.AddCell().Value = w.Outer
		row.AddCell().Value = w.Inner
		row.AddCell().SetInt(w.Count)
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

func addGroupedSheet(f *xlsx.File, name, keyHeader string, g aggregate.Grouped) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}
	header := sheet.AddRow()
	header.AddCell().Value = keyHeader
	header.AddCell().Value = "Count"
	for _, gc := range g.Groups {
		row := sheet.AddRow()
		row.AddCell().Value = gc.Key
		row.AddCell().SetInt(gc.Count)
	}
	return nil
}
