package table

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
)

// Table is an immutable-by-convention row-oriented dataset with a fixed
// column order. Producers build a Table once; consumers only read it.
type Table struct {
	cols   []string
	colIdx map[string]int
	rows   [][]Value
}

// New creates an empty table with the given column order.
// Duplicate column names are rejected.
func New(cols []string) (*Table, error) {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := idx[c]; dup {
			return nil, eris.New(fmt.Sprintf("table: duplicate column %q", c))
		}
		idx[c] = i
	}
	return &Table{
		cols:   append([]string(nil), cols...),
		colIdx: idx,
	}, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIdx[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// AppendRow adds a row. The slice must match the column count exactly.
func (t *Table) AppendRow(vals []Value) error {
	if len(vals) != len(t.cols) {
		return eris.New(fmt.Sprintf("table: row has %d values, want %d", len(vals), len(t.cols)))
	}
	t.rows = append(t.rows, append([]Value(nil), vals...))
	return nil
}

// Value returns the cell at (row, col). Unknown columns read as the
// missing sentinel, matching the semantics of a year that never
// supplied the column.
func (t *Table) Value(row int, col string) Value {
	i, ok := t.colIdx[col]
	if !ok {
		return Missing()
	}
	return t.rows[row][i]
}

// Row is a lightweight view over one row.
type Row struct {
	t *Table
	i int
}

// Row returns a view of row i.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Get returns the named cell of the row.
func (r Row) Get(col string) Value { return r.t.Value(r.i, col) }

// Index returns the row's position within its table.
func (r Row) Index() int { return r.i }

// WithColumn returns a new table extending t by one column. vals must
// have one entry per row. The receiver is not modified.
func (t *Table) WithColumn(name string, vals []Value) (*Table, error) {
	if t.HasColumn(name) {
		return nil, eris.New(fmt.Sprintf("table: column %q already exists", name))
	}
	if len(vals) != len(t.rows) {
		return nil, eris.New(fmt.Sprintf("table: column %q has %d values for %d rows", name, len(vals), len(t.rows)))
	}
	out, err := New(append(t.Columns(), name))
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		out.rows[i] = append(append([]Value(nil), row...), vals[i])
	}
	return out, nil
}

// WithReplacedColumn returns a new table with the named existing column
// replaced by vals. Used by feature derivation when a source year
// pre-supplies a calendar column that must be reconciled in place.
func (t *Table) WithReplacedColumn(name string, vals []Value) (*Table, error) {
	idx, ok := t.colIdx[name]
	if !ok {
		return nil, eris.New(fmt.Sprintf("table: no column %q to replace", name))
	}
	if len(vals) != len(t.rows) {
		return nil, eris.New(fmt.Sprintf("table: column %q has %d values for %d rows", name, len(vals), len(t.rows)))
	}
	out, err := New(t.cols)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(t.rows))
	for i, row := range t.rows {
		nr := append([]Value(nil), row...)
		nr[idx] = vals[i]
		out.rows[i] = nr
	}
	return out, nil
}

// Concat merges tables into one whose column set is the union of all
// inputs' columns in first-seen order. Cells for columns a source table
// lacks are filled with the missing sentinel. Row order is preserved
// within each input and across inputs, so the output row count always
// equals the sum of the input row counts.
func Concat(tables ...*Table) (*Table, error) {
	var cols []string
	seen := map[string]bool{}
	for _, in := range tables {
		if in == nil {
			return nil, eris.New("table: concat: nil input table")
		}
		for _, c := range in.cols {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}

	out, err := New(cols)
	if err != nil {
		return nil, err
	}
	for _, in := range tables {
		for r := range in.rows {
			row := make([]Value, len(cols))
			for j, c := range cols {
				if _, ok := in.colIdx[c]; ok {
					row[j] = in.Value(r, c)
				} else {
					row[j] = Missing()
				}
			}
			out.rows = append(out.rows, row)
		}
	}
	return out, nil
}

// Vocabulary returns the sorted distinct known values observed in a
// column. The categorical vocabulary is whatever the data contains,
// not a set fixed up front; sentinels are never part of it.
func (t *Table) Vocabulary(col string) []string {
	seen := map[string]bool{}
	for i := range t.rows {
		v := t.Value(i, col)
		if !v.Known() {
			continue
		}
		seen[v.Text()] = true
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
