package store

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/citylab/crimetab/internal/table"
)

// encodeRow serializes one table row as a JSON array of tagged cell
// encodings (see table.Value.Encode).
func encodeRow(tbl *table.Table, row int, cols []string) (string, error) {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = tbl.Value(row, c).Encode()
	}
	data, err := json.Marshal(cells)
	if err != nil {
		return "", eris.Wrap(err, "store: encode row")
	}
	return string(data), nil
}

// decodeRow reverses encodeRow.
func decodeRow(enc string, want int) ([]table.Value, error) {
	var cells []string
	if err := json.Unmarshal([]byte(enc), &cells); err != nil {
		return nil, eris.Wrap(err, "store: decode row")
	}
	if len(cells) != want {
		return nil, eris.Errorf("store: row has %d cells, want %d", len(cells), want)
	}
	vals := make([]table.Value, len(cells))
	for i, c := range cells {
		v, err := table.Decode(c)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal json")
	}
	return string(data), nil
}

func unmarshalJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return eris.Wrap(json.Unmarshal([]byte(s), v), "store: unmarshal json")
}
