package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/datalens-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/router"
	"github.com/KaramelBytes/datalens-cli/internal/session"
)

func TestResolveFileType(t *testing.T) {
	defer func() { flagFileType = "" }()

	flagFileType = ""
	if typ, err := resolveFileType("data/songs.CSV"); err != nil || typ != dataset.CSV {
		t.Fatalf("csv by extension: %v %v", typ, err)
	}
	if typ, err := resolveFileType("book.xlsx"); err != nil || typ != dataset.Excel {
		t.Fatalf("excel by extension: %v %v", typ, err)
	}
	if _, err := resolveFileType("notes.txt"); err == nil {
		t.Fatalf("expected error for unknown extension")
	}

	flagFileType = "excel"
	if typ, err := resolveFileType("notes.txt"); err != nil || typ != dataset.Excel {
		t.Fatalf("--type should win: %v %v", typ, err)
	}
	flagFileType = "parquet"
	if _, err := resolveFileType("notes.csv"); err == nil {
		t.Fatalf("expected error for unsupported --type")
	}
}

func TestRuntimeConfig(t *testing.T) {
	c := &cfgpkg.Global{
		Provider:         "ollama",
		OllamaHost:       "http://127.0.0.1:9999",
		HTTPTimeoutSec:   7,
		RetryMaxAttempts: 4,
		RetryBaseDelayMs: 10,
		RetryMaxDelayMs:  20,
		ArkRegion:        "ap-southeast",
	}
	rc := runtimeConfig(c)
	if rc.BaseURL != c.OllamaHost {
		t.Fatalf("ollama host not used: %q", rc.BaseURL)
	}
	if rc.HTTPTimeout != 7*time.Second || rc.RetryMax != 4 || rc.BaseDelay != 10*time.Millisecond || rc.MaxDelay != 20*time.Millisecond {
		t.Fatalf("unexpected retry config: %+v", rc)
	}
	if rc.Region != "ap-southeast" {
		t.Fatalf("region = %q", rc.Region)
	}

	c.Provider = ai.ProviderGroq
	if rc := runtimeConfig(c); rc.BaseURL != "" {
		t.Fatalf("groq should leave BaseURL to the preset, got %q", rc.BaseURL)
	}
	c.BaseURL = "http://proxy.local/v1"
	if rc := runtimeConfig(c); rc.BaseURL != c.BaseURL {
		t.Fatalf("explicit base_url not used: %q", rc.BaseURL)
	}
}

func TestMask(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"abc":            "******",
		"gsk_1234567890": "gsk****890",
	}
	for in, want := range cases {
		if got := mask(in); got != want {
			t.Errorf("mask(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteOutcome(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "charts", "out.png")

	var buf bytes.Buffer
	out := &session.Outcome{
		Chart:   &router.ChartSpec{Kind: router.Histogram, Title: "Distribution of Popularity"},
		Image:   []byte("png-bytes"),
		Elapsed: 1500 * time.Millisecond,
	}
	if err := writeOutcome(&buf, out, path, false); err != nil {
		t.Fatalf("writeOutcome chart: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "png-bytes" {
		t.Fatalf("chart not written: %v %q", err, b)
	}
	if !strings.Contains(buf.String(), "Distribution of Popularity written to") {
		t.Fatalf("missing chart line: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Query processed in 1.50 seconds.") {
		t.Fatalf("missing elapsed line: %q", buf.String())
	}

	buf.Reset()
	if err := writeOutcome(&buf, &session.Outcome{Answer: "There are 3 rows."}, "", false); err != nil {
		t.Fatalf("writeOutcome answer: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "There are 3 rows.\n") {
		t.Fatalf("unexpected answer output: %q", buf.String())
	}
}

func TestPrintInfo(t *testing.T) {
	ds := dataset.New("t.csv", []string{"name", "score"}, [][]string{{"a", "1"}, {"b", "2"}})
	var buf bytes.Buffer
	printInfo(&buf, ds.Info())
	got := buf.String()
	for _, want := range []string{"Shape of the dataset: (2, 2)", "Data Types:", "score", "Memory Usage:"} {
		if !strings.Contains(got, want) {
			t.Errorf("info output missing %q:\n%s", want, got)
		}
	}
}
