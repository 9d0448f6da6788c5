package schema

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/citylab/crimetab/internal/table"
)

// Normalize converts one year's raw header+rows into a table whose
// known columns carry canonical types. Absent known columns are simply
// not part of the output (the merger fills them with the missing
// sentinel); present values that fail coercion become the unparseable
// sentinel rather than an error. Unrecognized headers pass through
// untouched as extra text columns.
func Normalize(year int, header []string, rows [][]string, aliases Aliases) (*table.Table, error) {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = aliases.Canonical(strings.TrimSpace(h))
	}

	out, err := table.New(cols)
	if err != nil {
		return nil, err
	}

	unparseable := 0
	for _, raw := range rows {
		vals := make([]table.Value, len(cols))
		for i, col := range cols {
			var field string
			if i < len(raw) {
				field = strings.TrimSpace(raw[i])
			}
			v := coerce(col, field)
			if v.Kind() == table.KindUnparseable {
				unparseable++
			}
			vals[i] = v
		}
		if err := out.AppendRow(vals); err != nil {
			return nil, err
		}
	}

	if unparseable > 0 {
		zap.L().Warn("normalize: unparseable values retained",
			zap.Int("year", year),
			zap.Int("values", unparseable),
		)
	}
	return out, nil
}

// coerce applies the canonical type for a known column. A short row
// (field absent entirely) and an empty field both read as null: the
// source emitted the column but no value.
func coerce(col, field string) table.Value {
	if field == "" {
		return table.Null()
	}

	kind, known := knownColumns[col]
	if !known {
		return table.String(field)
	}

	switch kind {
	case coerceText:
		// Identifier columns stay textual even when they look numeric,
		// so leading zeros survive.
		return table.String(field)
	case coerceInt:
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			// Some years encode numerics as floats ("724.0").
			if f, ferr := strconv.ParseFloat(field, 64); ferr == nil && f == float64(int64(f)) {
				return table.Int(int64(f))
			}
			return table.Unparseable(field)
		}
		return table.Int(n)
	case coerceShooting:
		// The flag drifts between 'Y'/blank and 0/1 across years. Keep
		// the letter form textual and the numeric form numeric so the
		// deriver can apply its precedence ('Y' first, then 1) against
		// what the source actually said.
		if strings.EqualFold(field, "Y") {
			return table.String("Y")
		}
		if n, err := strconv.ParseInt(field, 10, 64); err == nil {
			return table.Int(n)
		}
		return table.Unparseable(field)
	case coercePassthrough:
		return table.String(field)
	}
	return table.String(field)
}
