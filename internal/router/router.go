// Package router classifies free-text dataset questions into a chart
// request or a hand-off to the answering service.
package router

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Intent is the classified purpose of a query.
type Intent int

const (
	General Intent = iota
	Distribution
	ScatterComparison
	CategoricalBar
)

func (i Intent) String() string {
	switch i {
	case Distribution:
		return "distribution"
	case ScatterComparison:
		return "scatter"
	case CategoricalBar:
		return "bar"
	default:
		return "general"
	}
}

// ChartKind names the chart a ChartSpec describes.
type ChartKind string

const (
	Histogram ChartKind = "histogram"
	Scatter   ChartKind = "scatter"
	Bar       ChartKind = "bar"
)

const (
	// DefaultDistributionColumn is used when a distribution query names no known column.
	DefaultDistributionColumn = "popularity"
	// DefaultCategoryColumn and DefaultValueColumn back every bar chart request.
	DefaultCategoryColumn = "artist_name"
	DefaultValueColumn    = "popularity"
	// HistogramBins is the bin count for distribution charts.
	HistogramBins = 30
)

var (
	// ErrColumnNotFound is returned when the single column a chart needs is absent.
	ErrColumnNotFound = errors.New("column not found")
	// ErrColumnsNotFound is returned when the column pair of a scatter request is absent.
	ErrColumnsNotFound = errors.New("columns not found")
)

// ChartSpec is a declarative, renderer-independent chart description.
type ChartSpec struct {
	Kind    ChartKind `json:"kind"`
	XColumn string    `json:"x_column"`
	YColumn string    `json:"y_column,omitempty"`
	Bins    int       `json:"bins,omitempty"`
	Title   string    `json:"title"`
	XLabel  string    `json:"x_label,omitempty"`
	YLabel  string    `json:"y_label,omitempty"`
}

// Columns lists the dataset columns the chart references.
func (s ChartSpec) Columns() []string {
	if s.YColumn == "" {
		return []string{s.XColumn}
	}
	return []string{s.XColumn, s.YColumn}
}

// Result is the outcome of Route. Exactly one of Chart, Delegate or Err is set.
type Result struct {
	Intent   Intent
	Chart    *ChartSpec
	Delegate bool
	Err      error
}

// guard inspects a lowercased query and reports whether it claims it.
type guard struct {
	intent Intent
	match  func(q string) bool
	build  func(q string, cols columnSet) Result
}

// guards run in order; the first match wins. A query holding both
// "distribution" and "scatter ... vs" is a Distribution.
var guards = []guard{
	{
		intent: Distribution,
		match:  func(q string) bool { return strings.Contains(q, "distribution") },
		build:  routeDistribution,
	},
	{
		intent: ScatterComparison,
		match: func(q string) bool {
			return strings.Contains(q, "scatter") && strings.Contains(q, "vs")
		},
		build: routeScatter,
	},
	{
		intent: CategoricalBar,
		match:  func(q string) bool { return strings.Contains(q, "bar") },
		build:  routeBar,
	},
}

// Route classifies query against the dataset columns (in dataset order).
// It is pure: the same arguments always produce the same Result.
func Route(query string, columns []string) Result {
	q := strings.ToLower(query)
	cols := newColumnSet(columns)
	for _, g := range guards {
		if g.match(q) {
			r := g.build(q, cols)
			r.Intent = g.intent
			return r
		}
	}
	return Result{Intent: General, Delegate: true}
}

func routeDistribution(q string, cols columnSet) Result {
	target := DefaultDistributionColumn
	if c, ok := cols.resolve(DefaultDistributionColumn); ok {
		target = c
	}
	for _, c := range cols.ordered {
		if c != "" && strings.Contains(q, strings.ToLower(c)) {
			target = c
			break
		}
	}
	return Result{Chart: &ChartSpec{
		Kind:    Histogram,
		XColumn: target,
		Bins:    HistogramBins,
		Title:   "Distribution of " + Capitalize(target),
		XLabel:  Capitalize(target),
		YLabel:  "Frequency",
	}}
}

func routeScatter(q string, cols columnSet) Result {
	idx := strings.Index(q, "vs")
	left, right := q[:idx], q[idx+len("vs"):]
	var colX string
	if fields := strings.Fields(left); len(fields) > 0 {
		colX = fields[len(fields)-1]
	}
	colY := strings.TrimSpace(right)

	x, okX := cols.resolve(colX)
	y, okY := cols.resolve(colY)
	if !okX || !okY {
		return Result{Err: fmt.Errorf("scatter plot needs %q and %q: %w", colX, colY, ErrColumnsNotFound)}
	}
	return Result{Chart: &ChartSpec{
		Kind:    Scatter,
		XColumn: x,
		YColumn: y,
		Title:   fmt.Sprintf("Scatter Plot of %s vs %s", Capitalize(colX), Capitalize(colY)),
		XLabel:  Capitalize(colX),
		YLabel:  Capitalize(colY),
	}}
}

func routeBar(_ string, cols columnSet) Result {
	x, ok := cols.resolve(DefaultCategoryColumn)
	if !ok {
		return Result{Err: fmt.Errorf("bar chart needs %q: %w", DefaultCategoryColumn, ErrColumnNotFound)}
	}
	// the value column is not checked here; rendering validates it
	y, ok := cols.resolve(DefaultValueColumn)
	if !ok {
		y = DefaultValueColumn
	}
	return Result{Chart: &ChartSpec{
		Kind:    Bar,
		XColumn: x,
		YColumn: y,
		Title:   "Bar Chart Example",
		XLabel:  DefaultCategoryColumn,
		YLabel:  DefaultValueColumn,
	}}
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
