package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/KaramelBytes/datalens-cli/internal/ai"
	"github.com/KaramelBytes/datalens-cli/internal/answer"
	"github.com/KaramelBytes/datalens-cli/internal/chart"
	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/session"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
	"github.com/charmbracelet/glamour"
)

// runtimeConfig translates configuration into runtime knobs.
func runtimeConfig(c *cfgpkg.Global) ai.RuntimeConfig {
	rc := ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		BaseURL:     c.BaseURL,
		Region:      c.ArkRegion,
	}
	if rc.BaseURL == "" && ai.NormalizeProvider(c.Provider) == ai.ProviderOllama {
		rc.BaseURL = c.OllamaHost
	}
	return rc
}

// newRenderer builds the chart renderer from configuration.
func newRenderer(c *cfgpkg.Global) (*chart.Renderer, error) {
	f, err := chart.ParseFormat(c.ChartFormat)
	if err != nil {
		return nil, err
	}
	return chart.NewRenderer(chart.Options{Width: c.ChartWidth, Height: c.ChartHeight, Format: f}), nil
}

// newSession wires a session from configuration. log is shared by the
// session and its answering service; nil means slog.Default().
func newSession(c *cfgpkg.Global, log *slog.Logger) (*session.Session, *chart.Renderer, error) {
	rend, err := newRenderer(c)
	if err != nil {
		return nil, nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	s := session.New(session.Options{
		Logger: log,
		Loader:   dataset.Loader{Options: dataset.Options{MaxRows: c.MaxRows, Sheet: flagSheet}},
		Renderer: rend,
		Authenticator: session.ProviderAuthenticator{
			Provider: c.Provider,
			Model:    c.Model,
			Runtime:  runtimeConfig(c),
			Answer: answer.Options{
				MaxTokens:     c.MaxTokens,
				Temperature:   c.Temperature,
				ContextTokens: c.ContextTokenLimit,
				SampleRows:    c.PreviewRows,
				Logger:        log,
			},
		},
	})
	return s, rend, nil
}

// resolveFileType prefers --type and falls back to the file extension.
func resolveFileType(path string) (dataset.FileType, error) {
	if flagFileType != "" {
		return dataset.ParseFileType(flagFileType)
	}
	if t, ok := dataset.FileTypeFromName(path); ok {
		return t, nil
	}
	return 0, fmt.Errorf("cannot infer file type of %s; pass --type csv or --type excel", filepath.Base(path))
}

// loadInto opens path and loads it into s.
func loadInto(s *session.Session, path string) (*dataset.Dataset, error) {
	typ, err := resolveFileType(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &dataset.FileParseError{Name: filepath.Base(path), Type: typ, Err: err}
	}
	defer f.Close()
	return s.LoadDataset(f, filepath.Base(path), typ)
}

// authenticate binds s to credential.
func authenticate(ctx context.Context, s *session.Session, credential string) error {
	if err := s.Authenticate(ctx, credential); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	return nil
}

// printPreview writes the first n rows as an aligned table.
func printPreview(w io.Writer, ds *dataset.Dataset, n int) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(ds.Columns(), "\t"))
	for _, row := range ds.Head(n) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

// printInfo writes the general information block shown after loading.
func printInfo(w io.Writer, info dataset.Info) {
	fmt.Fprintf(w, "Shape of the dataset: %s\n", info.Shape())
	fmt.Fprintln(w, "Data Types:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, dt := range info.DTypes {
		fmt.Fprintf(tw, "  %s\t%s\n", dt.Name, dt.Kind)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Memory Usage: %d bytes\n", info.MemoryUsage)
}

// writeOutcome prints an answer or saves the chart image to path.
// With pretty set, answers are rendered as terminal markdown.
func writeOutcome(w io.Writer, out *session.Outcome, path string, pretty bool) error {
	if out.Chart != nil {
		if err := utils.SafeWriteFile(path, out.Image); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Fprintf(w, "✓ %s written to %s\n", out.Chart.Title, path)
	} else if pretty {
		fmt.Fprint(w, renderMarkdown(out.Answer))
	} else {
		fmt.Fprintln(w, out.Answer)
	}
	fmt.Fprintln(w, out.ElapsedMessage())
	return nil
}

// renderMarkdown styles text for the terminal, falling back to plain text.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return text + "\n"
	}
	styled, err := r.Render(text)
	if err != nil {
		return text + "\n"
	}
	return styled
}
