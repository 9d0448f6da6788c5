// Package ingest reads the yearly incident CSV exports, normalizes each
// year through the schema package, and merges them into the unified
// table. Each file is read fully before merging proceeds; a file that
// is not row/column shaped aborts the whole run, since a partial merge
// would silently skew every cross-year comparison.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadFile bulk-reads one CSV file and returns its header and data
// rows. Any csv-level parse failure is structural and therefore fatal.
func ReadFile(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // column counts drift year to year

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrapf(err, "ingest: %s is not row-oriented", path)
	}
	if len(records) == 0 {
		return nil, nil, eris.New(fmt.Sprintf("ingest: %s has no header row", path))
	}
	return records[0], records[1:], nil
}

// Source names one yearly input file.
type Source struct {
	Year int
	Path string
}

// DiscoverSources locates one CSV per requested year in dir, matching
// any *.csv whose name contains the year. Exactly one match per year is
// required; zero or several is a configuration error, not something to
// guess around.
func DiscoverSources(dir string, years []int) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read dir %s", dir)
	}

	sources := make([]Source, 0, len(years))
	for _, year := range years {
		needle := fmt.Sprintf("%d", year)
		var matches []string
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
				continue
			}
			if strings.Contains(e.Name(), needle) {
				matches = append(matches, e.Name())
			}
		}
		switch len(matches) {
		case 0:
			return nil, eris.New(fmt.Sprintf("ingest: no CSV for year %d in %s", year, dir))
		case 1:
			sources = append(sources, Source{Year: year, Path: filepath.Join(dir, matches[0])})
		default:
			return nil, eris.New(fmt.Sprintf("ingest: %d CSVs match year %d in %s: %s",
				len(matches), year, dir, strings.Join(matches, ", ")))
		}
	}
	return sources, nil
}
