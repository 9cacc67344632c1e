package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const tracksCSV = "artist_name,track,popularity,energy,released\n" +
	"Adele,Hello,88,0.45,2015-10-23\n" +
	"Queen,Bohemian Rhapsody,91,0.4,1975-10-31\n" +
	"Adele,Skyfall,79,0.38,2012-10-05\n" +
	"Drake,,85,0.62,2018-06-29\n"

func TestLoadCSVInfersKinds(t *testing.T) {
	ds, err := Load(strings.NewReader(tracksCSV), "tracks.csv", CSV, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, want := ds.Columns(), []string{"artist_name", "track", "popularity", "energy", "released"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("columns = %v, want %v", got, want)
	}
	if ds.NumRows() != 4 {
		t.Fatalf("rows = %d", ds.NumRows())
	}
	want := map[string]Kind{
		"artist_name": KindCategorical,
		"track":       KindCategorical,
		"popularity":  KindNumeric,
		"energy":      KindNumeric,
		"released":    KindDatetime,
	}
	for col, k := range want {
		if got, _ := ds.Kind(col); got != k {
			t.Errorf("kind(%s) = %s, want %s", col, got, k)
		}
	}
	vals, ok := ds.Floats("popularity")
	if !ok || !reflect.DeepEqual(vals, []float64{88, 91, 79, 85}) {
		t.Fatalf("floats = %v", vals)
	}
}

func TestLoadCSVSemicolonAndCommaDecimals(t *testing.T) {
	in := "group;score;note\nA;10,5;x\nB;9,25;y\n"
	ds, err := Load(strings.NewReader(in), "scores.csv", CSV, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ds.HasColumn("score") {
		t.Fatalf("expected sniffed ';' delimiter, got columns %v", ds.Columns())
	}
	vals, _ := ds.Floats("score")
	if !reflect.DeepEqual(vals, []float64{10.5, 9.25}) {
		t.Fatalf("floats = %v", vals)
	}
}

func TestLoadCSVHeaderNormalization(t *testing.T) {
	in := "a,,a, b \n1,2,3,4\n5,6\n"
	ds, err := Load(strings.NewReader(in), "h.csv", CSV, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, want := ds.Columns(), []string{"a", "Unnamed: 1", "a.1", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("columns = %v, want %v", got, want)
	}
	if got := ds.Head(-1)[1]; !reflect.DeepEqual(got, []string{"5", "6", "", ""}) {
		t.Fatalf("short row not padded: %v", got)
	}
}

func TestLoadCSVMaxRows(t *testing.T) {
	ds, err := Load(strings.NewReader(tracksCSV), "tracks.csv", CSV, Options{MaxRows: 2})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", ds.NumRows())
	}
}

func TestLoadErrorsAreFileParseErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		typ  FileType
	}{
		{"empty csv", "", CSV},
		{"bare quote", "a,b\n1,\"2\n3,4\"x\n", CSV},
		{"not a workbook", "definitely not a zip", Excel},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(c.in), "upload", c.typ, Options{})
			var fpe *FileParseError
			if !errors.As(err, &fpe) {
				t.Fatalf("expected *FileParseError, got %v", err)
			}
			if fpe.Type != c.typ {
				t.Fatalf("type = %v, want %v", fpe.Type, c.typ)
			}
		})
	}
	_, err := Load(strings.NewReader(""), "e.csv", CSV, Options{})
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"ignored"}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	if _, err := f.NewSheet("Income"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	rows := [][]any{{"age", "income"}, {30, 52000}, {41, 61000.5}, {25, 38000}}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Income", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	p := filepath.Join(t.TempDir(), "people.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	return p
}

func TestLoadExcelSheetSelection(t *testing.T) {
	p := writeWorkbook(t)
	ds, err := LoadFile(p, Excel, Options{Sheet: "income"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := ds.Columns(); !reflect.DeepEqual(got, []string{"age", "income"}) {
		t.Fatalf("columns = %v", got)
	}
	if k, _ := ds.Kind("income"); k != KindNumeric {
		t.Fatalf("income kind = %s", k)
	}
	xs, ys, _ := ds.Pairs("age", "income")
	if !reflect.DeepEqual(xs, []float64{30, 41, 25}) || !reflect.DeepEqual(ys, []float64{52000, 61000.5, 38000}) {
		t.Fatalf("pairs = %v %v", xs, ys)
	}

	first, err := LoadFile(p, Excel, Options{})
	if err != nil {
		t.Fatalf("load first sheet: %v", err)
	}
	if got := first.Columns(); !reflect.DeepEqual(got, []string{"ignored"}) {
		t.Fatalf("first sheet columns = %v", got)
	}

	_, err = LoadFile(p, Excel, Options{Sheet: "missing"})
	var fpe *FileParseError
	if !errors.As(err, &fpe) || !strings.Contains(err.Error(), "Income") {
		t.Fatalf("expected sheet-not-found parse error listing sheets, got %v", err)
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	ds := New("x", []string{"Age", "age", "Income"}, nil)
	if c, ok := ds.Lookup("age"); !ok || c != "age" {
		t.Fatalf("exact match should win, got %q", c)
	}
	if c, ok := ds.Lookup("INCOME"); !ok || c != "Income" {
		t.Fatalf("lookup = %q %v", c, ok)
	}
	if _, ok := ds.Lookup("height"); ok {
		t.Fatalf("unexpected match")
	}
}

func TestInfoAndSummary(t *testing.T) {
	ds, err := Load(strings.NewReader(tracksCSV), "tracks.csv", CSV, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	info := ds.Info()
	if info.Shape() != "(4, 5)" {
		t.Fatalf("shape = %s", info.Shape())
	}
	if len(info.DTypes) != 5 || info.DTypes[2] != (ColumnType{Name: "popularity", Kind: KindNumeric}) {
		t.Fatalf("dtypes = %+v", info.DTypes)
	}
	if info.MemoryUsage <= int64(len(tracksCSV)) {
		t.Fatalf("memory usage %d should exceed raw bytes %d", info.MemoryUsage, len(tracksCSV))
	}

	sum := ds.Summary(2)
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: tracks.csv",
		"Rows: 4",
		"- popularity: numeric (min=79, max=91, mean=85.75, missing=0)",
		"- artist_name: categorical (unique=3, top=Adele (2), Drake (1), Queen (1), missing=0)",
		"- track: categorical",
		"missing=1",
		"| artist_name | track | popularity | energy | released |",
		"| Adele | Hello | 88 | 0.45 | 2015-10-23 |",
	} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary missing %q:\n%s", want, sum)
		}
	}
	if strings.Contains(sum, "Skyfall") {
		t.Errorf("summary should include only 2 sample rows:\n%s", sum)
	}
}

func TestFileTypes(t *testing.T) {
	if typ, ok := FileTypeFromName("Data.XLSX"); !ok || typ != Excel {
		t.Fatalf("xlsx -> %v %v", typ, ok)
	}
	if typ, ok := FileTypeFromName("a.tsv"); !ok || typ != CSV {
		t.Fatalf("tsv -> %v %v", typ, ok)
	}
	if _, ok := FileTypeFromName("notes.txt"); ok {
		t.Fatalf("txt should not be recognized")
	}
	if typ, err := ParseFileType("Excel"); err != nil || typ != Excel {
		t.Fatalf("ParseFileType = %v %v", typ, err)
	}
	if _, err := ParseFileType("parquet"); err == nil {
		t.Fatalf("expected error for parquet")
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"), CSV, Options{})
	var fpe *FileParseError
	if !errors.As(err, &fpe) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestSumByKeepsFirstAppearanceOrder(t *testing.T) {
	ds := New("x", []string{"artist_name", "popularity"}, [][]string{
		{"Drake", "80"}, {"Adele", "90"}, {"Drake", "5"}, {"Queen", "n/a"},
	})
	labels, sums, ok := ds.SumBy("artist_name", "popularity")
	if !ok {
		t.Fatalf("expected columns to resolve")
	}
	if !reflect.DeepEqual(labels, []string{"Drake", "Adele", "Queen"}) || !reflect.DeepEqual(sums, []float64{85, 90, 0}) {
		t.Fatalf("SumBy = %v %v", labels, sums)
	}
	if _, _, ok := ds.SumBy("artist_name", "energy"); ok {
		t.Fatalf("missing value column should not resolve")
	}
}

func TestNonFiniteCellsAreSkipped(t *testing.T) {
	ds, err := Load(strings.NewReader("popularity,label\n1,a\n2,b\ninf,c\n-Infinity,d\n"), "inf.csv", CSV, Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if k, _ := ds.Kind("popularity"); k != KindNumeric {
		t.Fatalf("kind = %s, want numeric", k)
	}
	vals, _ := ds.Floats("popularity")
	if !reflect.DeepEqual(vals, []float64{1, 2}) {
		t.Fatalf("floats = %v, want [1 2]", vals)
	}
	if _, ok := parseNumeric("+Inf"); ok {
		t.Fatalf("+Inf should not parse as a number")
	}
}
