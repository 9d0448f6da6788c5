package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citylab/crimetab/internal/schema"
	"github.com/citylab/crimetab/internal/table"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "crime_2018.csv",
		"INCIDENT_NUMBER,OFFENSE_CODE\nI-1,724\nI-2,3115\n")

	header, rows, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"INCIDENT_NUMBER", "OFFENSE_CODE"}, header)
	assert.Len(t, rows, 2)
}

func TestReadFile_UnreadableIsFatal(t *testing.T) {
	dir := t.TempDir()

	_, _, err := ReadFile(filepath.Join(dir, "nope.csv"))
	assert.Error(t, err)

	// A directory opens but cannot be read as rows.
	_, _, err = ReadFile(dir)
	assert.Error(t, err)
}

func TestReadFile_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "empty_2018.csv", "A,B\n")

	header, rows, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, header)
	assert.Empty(t, rows)
}

func TestDiscoverSources(t *testing.T) {
	dir := t.TempDir()
	for y := 2018; y <= 2020; y++ {
		writeCSV(t, dir, fmt.Sprintf("crime-incident-reports-%d.csv", y), "A\n")
	}

	sources, err := DiscoverSources(dir, []int{2018, 2019, 2020})
	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Equal(t, 2018, sources[0].Year)
	assert.Contains(t, sources[0].Path, "2018")
}

func TestDiscoverSources_MissingYear(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "crime_2018.csv", "A\n")

	_, err := DiscoverSources(dir, []int{2018, 2019})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2019")
}

func TestDiscoverSources_AmbiguousYear(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "crime_2018.csv", "A\n")
	writeCSV(t, dir, "crime_2018_fixed.csv", "A\n")

	_, err := DiscoverSources(dir, []int{2018})
	assert.Error(t, err)
}

func threeYearFixture(t *testing.T) []Source {
	t.Helper()
	dir := t.TempDir()
	// 2018 has the shooting flag as 'Y'/blank; 2019 lacks it entirely;
	// 2020 uses 0/1. Schemas drift, rows must all survive.
	writeCSV(t, dir, "crime_2018.csv",
		"INCIDENT_NUMBER,OFFENSE_CODE,DISTRICT,SHOOTING\nI-18-1,724,B3,Y\nI-18-2,3115,C11,\n")
	writeCSV(t, dir, "crime_2019.csv",
		"INCIDENT_NUMBER,OFFENSE_CODE,DISTRICT\nI-19-1,724,B3\n")
	writeCSV(t, dir, "crime_2020.csv",
		"INCIDENT_NUMBER,OFFENSE_CODE,DISTRICT,SHOOTING\nI-20-1,613,A1,0\nI-20-2,724,B3,1\n")

	sources, err := DiscoverSources(dir, []int{2018, 2019, 2020})
	require.NoError(t, err)
	return sources
}

func TestRun_RowCountInvariant(t *testing.T) {
	sources := threeYearFixture(t)

	res, err := Run(context.Background(), sources, Options{})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 5, res.Merged.Len(), "unified row count equals the sum of yearly counts")
	assert.Equal(t, map[int]int{2018: 2, 2019: 1, 2020: 2}, res.PerYear)
}

func TestRun_MissingColumnGetsSentinel(t *testing.T) {
	sources := threeYearFixture(t)

	res, err := Run(context.Background(), sources, Options{})
	require.NoError(t, err)

	// Row 2 is the 2019 row: its year never supplied SHOOTING.
	assert.Equal(t, table.KindMissing, res.Merged.Value(2, schema.ColShooting).Kind())
	// The 2018 blank flag is null, distinct from missing.
	assert.Equal(t, table.KindNull, res.Merged.Value(1, schema.ColShooting).Kind())
}

func TestRun_ParallelPreservesOrder(t *testing.T) {
	sources := threeYearFixture(t)

	sequential, err := Run(context.Background(), sources, Options{})
	require.NoError(t, err)
	parallel, err := Run(context.Background(), sources, Options{Concurrency: 3})
	require.NoError(t, err)

	require.Equal(t, sequential.Merged.Len(), parallel.Merged.Len())
	for i := 0; i < sequential.Merged.Len(); i++ {
		assert.Equal(t,
			sequential.Merged.Value(i, schema.ColIncidentNumber).Text(),
			parallel.Merged.Value(i, schema.ColIncidentNumber).Text(),
			"row %d", i)
	}
}

func TestRun_BadYearAbortsWholeRun(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "crime_2018.csv", "A\nx\n")

	sources := []Source{
		{Year: 2018, Path: good},
		{Year: 2019, Path: filepath.Join(dir, "vanished_2019.csv")},
	}

	_, err := Run(context.Background(), sources, Options{})
	assert.Error(t, err, "partial merge is worse than none")
}

func TestRun_NoSources(t *testing.T) {
	_, err := Run(context.Background(), nil, Options{})
	assert.Error(t, err)
}
