package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		min  int
	}{
		{"empty", "", 0},
		{"simple", "hello world", 2},
		{"long", strings.Repeat("a", 4000), 900}, // heuristic ~ 1 tok ≈ 4 chars
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got < c.min {
			t.Errorf("%s: got %d < min %d", c.name, got, c.min)
		}
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000) // ~5000 chars
	trunc := utils.TruncateToTokenLimit(text, 300)
	n := utils.CountTokens(trunc)
	if n > 300 {
		t.Fatalf("tokens=%d exceeds limit", n)
	}
	if len(trunc) == 0 {
		t.Fatalf("expected non-empty truncation")
	}
}

func TestTruncateLines(t *testing.T) {
	short := "a\nb\n"
	if out, cut := utils.TruncateLines(short, 100); cut || out != short {
		t.Fatalf("short text should be untouched, got %q cut=%v", out, cut)
	}
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("- column_name: numeric (min=1, max=2)\n")
	}
	out, cut := utils.TruncateLines(b.String(), 120)
	if !cut {
		t.Fatalf("expected truncation")
	}
	if utils.CountTokens(out) > 120 {
		t.Fatalf("tokens=%d exceeds limit", utils.CountTokens(out))
	}
	if !strings.HasSuffix(out, "... (truncated)") {
		t.Fatalf("expected marker, got %q", out[len(out)-20:])
	}
	for _, line := range strings.Split(strings.TrimSuffix(out, "... (truncated)"), "\n") {
		if line != "" && line != "- column_name: numeric (min=1, max=2)" {
			t.Fatalf("partial line kept: %q", line)
		}
	}
}

func TestSafeWriteFileCreatesParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "chart.png")
	if err := utils.SafeWriteFile(path, []byte("x")); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "x" {
		t.Fatalf("unexpected content %q, %v", b, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}
