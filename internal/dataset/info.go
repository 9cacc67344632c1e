package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ColumnType pairs a column with its inferred kind.
type ColumnType struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Info is the general information shown after an upload.
type Info struct {
	Rows        int          `json:"rows"`
	Cols        int          `json:"cols"`
	DTypes      []ColumnType `json:"dtypes"`
	MemoryUsage int64        `json:"memory_usage_bytes"`
}

// Shape renders the dataset shape as "(rows, cols)".
func (i Info) Shape() string { return fmt.Sprintf("(%d, %d)", i.Rows, i.Cols) }

// Info computes shape, dtypes and an estimate of memory usage: string
// headers plus cell bytes plus one slice header per row.
func (d *Dataset) Info() Info {
	const stringHeader, sliceHeader = 16, 24
	info := Info{Rows: len(d.rows), Cols: len(d.columns)}
	for i, c := range d.columns {
		info.DTypes = append(info.DTypes, ColumnType{Name: c, Kind: d.kinds[i]})
		info.MemoryUsage += int64(stringHeader + len(c))
	}
	for _, r := range d.rows {
		info.MemoryUsage += sliceHeader
		for _, cell := range r {
			info.MemoryUsage += int64(stringHeader + len(cell))
		}
	}
	return info
}

// Summary renders a compact text description of the dataset used as model
// context: schema with per-column statistics, then sample rows.
func (d *Dataset) Summary(sampleRows int) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if d.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", d.Name)
	}
	fmt.Fprintf(&b, "Rows: %d\n", len(d.rows))
	fmt.Fprintf(&b, "Columns: %d\n\n", len(d.columns))

	b.WriteString("[SCHEMA]\n")
	for i, c := range d.columns {
		fmt.Fprintf(&b, "- %s: %s", c, d.kinds[i])
		vals := d.columnValues(i)
		missing := 0
		for _, v := range vals {
			if IsMissing(v) {
				missing++
			}
		}
		switch d.kinds[i] {
		case KindNumeric:
			nums, _ := d.Floats(c)
			mn, mx, mean := numStats(nums)
			fmt.Fprintf(&b, " (min=%s, max=%s, mean=%s", fmtNum(mn), fmtNum(mx), fmtNum(mean))
		case KindCategorical, KindText:
			top := topValues(vals, 3)
			fmt.Fprintf(&b, " (unique=%d, top=%s", countUnique(vals), strings.Join(top, ", "))
		default:
			b.WriteString(" (")
		}
		fmt.Fprintf(&b, ", missing=%d)\n", missing)
	}

	head := d.Head(sampleRows)
	if len(head) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n")
		b.WriteString("| " + strings.Join(cleanCells(d.columns), " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(d.columns)) + "\n")
		for _, r := range head {
			b.WriteString("| " + strings.Join(cleanCells(r), " | ") + " |\n")
		}
	}
	return b.String()
}

func numStats(vals []float64) (mn, mx, mean float64) {
	if len(vals) == 0 {
		return 0, 0, 0
	}
	mn, mx = math.Inf(1), math.Inf(-1)
	var sum float64
	for _, v := range vals {
		mn = math.Min(mn, v)
		mx = math.Max(mx, v)
		sum += v
	}
	return mn, mx, sum / float64(len(vals))
}

func fmtNum(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.4g", f)
}

func countUnique(vals []string) int {
	seen := make(map[string]struct{})
	for _, v := range vals {
		if !IsMissing(v) {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// topValues returns the n most frequent values, ties broken alphabetically.
func topValues(vals []string, n int) []string {
	counts := make(map[string]int)
	for _, v := range vals {
		if !IsMissing(v) {
			counts[v]++
		}
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf("%s (%d)", k, counts[k])
	}
	return out
}

func cleanCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(strings.ReplaceAll(c, "\n", " "), "|", "/")
	}
	return out
}
