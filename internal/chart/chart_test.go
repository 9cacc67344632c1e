package chart

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/router"
)

func tracks() *dataset.Dataset {
	return dataset.New("tracks.csv",
		[]string{"artist_name", "popularity", "energy", "genre"},
		[][]string{
			{"Adele", "88", "0.45", "pop"},
			{"Queen", "91", "0.40", "rock"},
			{"Adele", "79", "0.38", "pop"},
			{"Drake", "85", "0.62", "hip hop"},
		})
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func TestRenderEachKindAsPNG(t *testing.T) {
	ds := tracks()
	specs := []*router.ChartSpec{
		{Kind: router.Histogram, XColumn: "popularity", Bins: 30, Title: "Distribution of Popularity", XLabel: "Popularity", YLabel: "Frequency"},
		{Kind: router.Histogram, XColumn: "genre", Bins: 30, Title: "Distribution of Genre"},
		{Kind: router.Scatter, XColumn: "popularity", YColumn: "energy", Title: "Scatter Plot of Popularity vs Energy"},
		{Kind: router.Bar, XColumn: "artist_name", YColumn: "popularity", Title: "Bar Chart Example"},
	}
	r := NewRenderer(Options{Width: 640, Height: 400})
	for _, spec := range specs {
		t.Run(string(spec.Kind)+"/"+spec.XColumn, func(t *testing.T) {
			var buf bytes.Buffer
			if err := r.Render(spec, ds, &buf); err != nil {
				t.Fatalf("Render: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), pngSignature) {
				t.Fatalf("output is not a PNG (%d bytes)", buf.Len())
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	f, err := ParseFormat("SVG")
	if err != nil {
		t.Fatalf("ParseFormat: %v", err)
	}
	r := NewRenderer(Options{Format: f})
	var buf bytes.Buffer
	spec := &router.ChartSpec{Kind: router.Bar, XColumn: "artist_name", YColumn: "popularity", Title: "Bar Chart Example"}
	if err := r.Render(spec, tracks(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Fatalf("expected svg output")
	}
	if r.Format().ContentType() != "image/svg+xml" {
		t.Fatalf("unexpected content type %s", r.Format().ContentType())
	}
}

func TestRenderMissingColumns(t *testing.T) {
	ds := tracks()
	cases := []struct {
		spec *router.ChartSpec
		want error
	}{
		{&router.ChartSpec{Kind: router.Histogram, XColumn: "tempo"}, router.ErrColumnNotFound},
		{&router.ChartSpec{Kind: router.Bar, XColumn: "artist_name", YColumn: "plays"}, router.ErrColumnNotFound},
		{&router.ChartSpec{Kind: router.Scatter, XColumn: "age", YColumn: "income"}, router.ErrColumnsNotFound},
		{&router.ChartSpec{Kind: router.Scatter, XColumn: "popularity", YColumn: "income"}, router.ErrColumnsNotFound},
	}
	r := NewRenderer(Options{})
	for _, tc := range cases {
		var buf bytes.Buffer
		err := r.Render(tc.spec, ds, &buf)
		if !errors.Is(err, tc.want) {
			t.Errorf("%+v: expected %v, got %v", tc.spec, tc.want, err)
		}
		if buf.Len() != 0 {
			t.Errorf("%+v: nothing should be written on error", tc.spec)
		}
	}
}

func TestScatterRejectsTextColumns(t *testing.T) {
	spec := &router.ChartSpec{Kind: router.Scatter, XColumn: "genre", YColumn: "energy"}
	if err := NewRenderer(Options{}).Render(spec, tracks(), &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for non-numeric scatter column")
	}
}

func TestBin(t *testing.T) {
	labels, counts := Bin([]float64{0, 1, 2, 3, 4, 10}, 5)
	if len(labels) != 5 || labels[0] != "0" || labels[1] != "2" {
		t.Fatalf("labels = %v", labels)
	}
	if !reflect.DeepEqual(counts, []float64{2, 2, 1, 0, 1}) {
		t.Fatalf("counts = %v", counts)
	}
	labels, counts = Bin([]float64{7, 7, 7}, 30)
	if !reflect.DeepEqual(labels, []string{"7"}) || !reflect.DeepEqual(counts, []float64{3}) {
		t.Fatalf("flat bin = %v %v", labels, counts)
	}
	if l, c := Bin(nil, 30); l != nil || c != nil {
		t.Fatalf("empty input should yield nothing")
	}
}

func TestBinIgnoresNonFinite(t *testing.T) {
	labels, counts := Bin([]float64{1, 2, math.Inf(1), math.NaN(), math.Inf(-1)}, 2)
	if !reflect.DeepEqual(labels, []string{"1", "1.5"}) || !reflect.DeepEqual(counts, []float64{1, 1}) {
		t.Fatalf("Bin = %v %v", labels, counts)
	}
	if l, c := Bin([]float64{math.Inf(1)}, 30); l != nil || c != nil {
		t.Fatalf("only non-finite input should yield nothing, got %v %v", l, c)
	}
}

func TestRenderDistributionWithInfinityCell(t *testing.T) {
	ds, err := dataset.Load(strings.NewReader("popularity\n1\n2\ninf\n"), "inf.csv", dataset.CSV, dataset.Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	res := router.Route("show distribution", ds.Columns())
	if res.Chart == nil {
		t.Fatalf("expected a chart, got %+v", res)
	}
	var buf bytes.Buffer
	if err := NewRenderer(Options{}).Render(res.Chart, ds, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngSignature) {
		t.Fatalf("output is not a PNG")
	}
}

func TestCountValues(t *testing.T) {
	labels, counts := CountValues([]string{"pop", "rock", " pop", "", "n/a"})
	if !reflect.DeepEqual(labels, []string{"pop", "rock"}) || !reflect.DeepEqual(counts, []float64{2, 1}) {
		t.Fatalf("CountValues = %v %v", labels, counts)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != PNG {
		t.Fatalf("default format = %v %v", f, err)
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Fatalf("expected error for gif")
	}
}
