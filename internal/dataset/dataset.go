// Package dataset holds the in-memory table a session asks questions about
// and the loaders that build it from CSV and Excel uploads.
package dataset

import (
	"fmt"
	"strings"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindCategorical Kind = "categorical"
	KindText        Kind = "text"
	KindUnknown     Kind = "unknown"
)

// FileType is the declared format of an upload.
type FileType int

const (
	CSV FileType = iota
	Excel
)

func (t FileType) String() string {
	if t == Excel {
		return "Excel"
	}
	return "CSV"
}

// ParseFileType accepts the user-facing names of a file type.
func ParseFileType(s string) (FileType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv", "tsv":
		return CSV, nil
	case "excel", "xlsx", "xls":
		return Excel, nil
	default:
		return CSV, fmt.Errorf("unsupported file type: %s (use csv or excel)", s)
	}
}

// FileTypeFromName guesses the file type from an extension.
func FileTypeFromName(name string) (FileType, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".tsv"):
		return CSV, true
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		return Excel, true
	}
	return CSV, false
}

// Dataset is an immutable table of string cells with inferred column kinds.
type Dataset struct {
	Name    string
	columns []string
	kinds   []Kind
	rows    [][]string
	index   map[string]int
	folded  map[string]int
}

// New builds a Dataset from a header and rows. Rows shorter than the header
// are padded; longer rows are cut.
func New(name string, header []string, rows [][]string) *Dataset {
	cols := normalizeHeader(header)
	norm := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, len(cols))
		copy(row, r)
		norm[i] = row
	}
	d := &Dataset{
		Name:    name,
		columns: cols,
		rows:    norm,
		index:   make(map[string]int, len(cols)),
		folded:  make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		d.index[c] = i
		k := strings.ToLower(c)
		if _, ok := d.folded[k]; !ok {
			d.folded[k] = i
		}
	}
	d.kinds = make([]Kind, len(cols))
	for i := range cols {
		d.kinds[i] = inferKind(d.columnValues(i))
	}
	return d
}

// Columns returns the column names in file order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// NumRows returns the number of data rows.
func (d *Dataset) NumRows() int { return len(d.rows) }

// HasColumn reports whether name is an exact column name.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Lookup resolves name to a column, preferring an exact match and falling
// back to a case-insensitive one.
func (d *Dataset) Lookup(name string) (string, bool) {
	if i, ok := d.index[name]; ok {
		return d.columns[i], true
	}
	if i, ok := d.folded[strings.ToLower(name)]; ok {
		return d.columns[i], true
	}
	return "", false
}

// Kind returns the inferred kind of a column.
func (d *Dataset) Kind(name string) (Kind, bool) {
	i, ok := d.index[name]
	if !ok {
		return KindUnknown, false
	}
	return d.kinds[i], true
}

// Column returns a copy of the raw cells of a column.
func (d *Dataset) Column(name string) ([]string, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columnValues(i), true
}

// Floats returns the numeric values of a column, skipping missing and
// unparsable cells.
func (d *Dataset) Floats(name string) ([]float64, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(d.rows))
	for _, r := range d.rows {
		if f, ok := parseNumeric(r[i]); ok {
			out = append(out, f)
		}
	}
	return out, true
}

// Pairs returns aligned numeric values of two columns, keeping only rows
// where both parse.
func (d *Dataset) Pairs(x, y string) (xs, ys []float64, ok bool) {
	xi, okX := d.index[x]
	yi, okY := d.index[y]
	if !okX || !okY {
		return nil, nil, false
	}
	for _, r := range d.rows {
		fx, okx := parseNumeric(r[xi])
		fy, oky := parseNumeric(r[yi])
		if okx && oky {
			xs = append(xs, fx)
			ys = append(ys, fy)
		}
	}
	return xs, ys, true
}

// SumBy groups rows by the cells of cat and sums the numeric cells of val,
// returning categories in order of first appearance. Rows whose value does
// not parse still register their category.
func (d *Dataset) SumBy(cat, val string) (labels []string, sums []float64, ok bool) {
	ci, okC := d.index[cat]
	vi, okV := d.index[val]
	if !okC || !okV {
		return nil, nil, false
	}
	pos := make(map[string]int)
	for _, r := range d.rows {
		label := strings.TrimSpace(r[ci])
		i, seen := pos[label]
		if !seen {
			i = len(labels)
			pos[label] = i
			labels = append(labels, label)
			sums = append(sums, 0)
		}
		if f, ok := parseNumeric(r[vi]); ok {
			sums[i] += f
		}
	}
	return labels, sums, true
}

// Head returns copies of the first n rows.
func (d *Dataset) Head(n int) [][]string {
	if n < 0 || n > len(d.rows) {
		n = len(d.rows)
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(d.columns))
		copy(row, d.rows[i])
		out[i] = row
	}
	return out
}

func (d *Dataset) columnValues(i int) []string {
	out := make([]string, len(d.rows))
	for j, r := range d.rows {
		out[j] = r[i]
	}
	return out
}

// normalizeHeader trims names, fills blanks and de-duplicates the way
// spreadsheet tools do ("Unnamed: 3", "score.1").
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		candidate := name
		for n := 1; used[candidate]; n++ {
			candidate = fmt.Sprintf("%s.%d", name, n)
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}
