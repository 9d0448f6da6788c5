package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/citylab/crimetab/internal/aggregate"
)

// WriteSeriesCSV writes one chart series as a two-column CSV named
// after the series, returning the written path.
func WriteSeriesCSV(dir string, s aggregate.Series) (string, error) {
	path := filepath.Join(dir, s.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write([]string{"label", "count"}); err != nil {
		return "", eris.Wrap(err, "export: write header")
	}
	for i, label := range s.Labels {
		if err := w.Write([]string{label, strconv.Itoa(s.Counts[i])}); err != nil {
			return "", eris.Wrapf(err, "export: write %s row %d", s.Name, i)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", eris.Wrapf(err, "export: flush %s", path)
	}
	return path, nil
}
