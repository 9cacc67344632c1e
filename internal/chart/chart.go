// Package chart draws router chart specs over a dataset with go-chart.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/router"
)

// Format is the image encoding of a rendered chart.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat accepts "png" or "svg" in any case; empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "svg":
		return SVG, nil
	}
	return "", fmt.Errorf("unsupported chart format %q (want png or svg)", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// ErrNoData is returned when the referenced columns hold nothing plottable.
var ErrNoData = errors.New("no plottable values")

// Options configures a Renderer. Zero values fall back to 1024x640 PNG.
type Options struct {
	Width  int
	Height int
	Format Format
}

// Renderer renders chart specs.
type Renderer struct {
	opt Options
}

// NewRenderer returns a Renderer with defaults applied.
func NewRenderer(opt Options) *Renderer {
	if opt.Width <= 0 {
		opt.Width = 1024
	}
	if opt.Height <= 0 {
		opt.Height = 640
	}
	if opt.Format == "" {
		opt.Format = PNG
	}
	return &Renderer{opt: opt}
}

// Format returns the encoding Render writes.
func (r *Renderer) Format() Format { return r.opt.Format }

// Validate checks that every column spec references exists in ds.
func Validate(spec *router.ChartSpec, ds *dataset.Dataset) error {
	if spec == nil {
		return errors.New("chart spec is nil")
	}
	if ds == nil {
		return errors.New("no dataset loaded")
	}
	var missing []string
	for _, c := range spec.Columns() {
		if !ds.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	switch len(missing) {
	case 0:
		return nil
	case 1:
		if spec.Kind == router.Scatter {
			return fmt.Errorf("%w: %s", router.ErrColumnsNotFound, missing[0])
		}
		return fmt.Errorf("%w: %s", router.ErrColumnNotFound, missing[0])
	default:
		return fmt.Errorf("%w: %s", router.ErrColumnsNotFound, strings.Join(missing, ", "))
	}
}

// Render validates spec against ds and writes the encoded chart to w.
func (r *Renderer) Render(spec *router.ChartSpec, ds *dataset.Dataset, w io.Writer) error {
	if err := Validate(spec, ds); err != nil {
		return err
	}
	provider := gochart.PNG
	if r.opt.Format == SVG {
		provider = gochart.SVG
	}
	switch spec.Kind {
	case router.Histogram:
		bc, err := r.histogram(spec, ds)
		if err != nil {
			return err
		}
		return bc.Render(provider, w)
	case router.Bar:
		bc, err := r.bar(spec, ds)
		if err != nil {
			return err
		}
		return bc.Render(provider, w)
	case router.Scatter:
		ch, err := r.scatter(spec, ds)
		if err != nil {
			return err
		}
		return ch.Render(provider, w)
	}
	return fmt.Errorf("unsupported chart kind %q", spec.Kind)
}

func (r *Renderer) histogram(spec *router.ChartSpec, ds *dataset.Dataset) (*gochart.BarChart, error) {
	var labels []string
	var counts []float64
	if kind, _ := ds.Kind(spec.XColumn); kind == dataset.KindNumeric {
		vals, _ := ds.Floats(spec.XColumn)
		labels, counts = Bin(vals, spec.Bins)
	} else {
		cells, _ := ds.Column(spec.XColumn)
		labels, counts = CountValues(cells)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w in column %s", ErrNoData, spec.XColumn)
	}
	return r.barChart(spec, labels, counts), nil
}

func (r *Renderer) bar(spec *router.ChartSpec, ds *dataset.Dataset) (*gochart.BarChart, error) {
	labels, sums, _ := ds.SumBy(spec.XColumn, spec.YColumn)
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w in column %s", ErrNoData, spec.XColumn)
	}
	return r.barChart(spec, labels, sums), nil
}

func (r *Renderer) barChart(spec *router.ChartSpec, labels []string, values []float64) *gochart.BarChart {
	bars := make([]gochart.Value, len(values))
	lo, hi := 0.0, 0.0
	for i, v := range values {
		bars[i] = gochart.Value{Value: v, Label: labels[i], Style: gochart.Style{FillColor: barColor, StrokeColor: barColor}}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	const spacing = 4
	usable := r.opt.Width - 120
	width := usable/len(bars) - spacing
	if width < 2 {
		width = 2
	}
	if width > 60 {
		width = 60
	}
	return &gochart.BarChart{
		Title:      spec.Title,
		Width:      r.opt.Width,
		Height:     r.opt.Height,
		BarWidth:   width,
		BarSpacing: spacing,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: gochart.YAxis{
			Name:  spec.YLabel,
			Range: &gochart.ContinuousRange{Min: lo, Max: hi * 1.05},
		},
		Bars: bars,
	}
}

func (r *Renderer) scatter(spec *router.ChartSpec, ds *dataset.Dataset) (*gochart.Chart, error) {
	for _, c := range spec.Columns() {
		if kind, _ := ds.Kind(c); kind != dataset.KindNumeric {
			return nil, fmt.Errorf("scatter plot needs numeric columns: %s is %s", c, kind)
		}
	}
	xs, ys, _ := ds.Pairs(spec.XColumn, spec.YColumn)
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w in columns %s, %s", ErrNoData, spec.XColumn, spec.YColumn)
	}
	return &gochart.Chart{
		Title:      spec.Title,
		Width:      r.opt.Width,
		Height:     r.opt.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: spec.XLabel, Range: paddedRange(xs)},
		YAxis:      gochart.YAxis{Name: spec.YLabel, Range: paddedRange(ys)},
		Series: []gochart.Series{
			gochart.ContinuousSeries{Name: spec.Title, XValues: xs, YValues: ys, Style: pointStyle(barColor)},
		},
	}, nil
}

var barColor = drawing.ColorFromHex("0072C6")

// pointStyle renders points only, with no connecting line.
func pointStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeWidth: gochart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

// paddedRange returns vals' extent widened by 5%, or by 1 when flat.
func paddedRange(vals []float64) *gochart.ContinuousRange {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
