package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/datalens-cli/internal/config"
	"github.com/KaramelBytes/datalens-cli/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
	// Provider/credential flags (override config if set)
	flagProvider string
	flagModel    string
	flagAPIKey   string
	// Dataset flags
	flagFileType string
	flagSheet    string
	// Output
	flagPretty bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "datalens",
	Short: "DataLens CLI: ask questions about CSV and Excel data",
	Long: `DataLens loads a CSV or Excel file and answers natural-language questions
about it. Questions asking for a distribution, a "scatter x vs y" comparison or a
bar chart are rendered as charts; everything else is answered by a language
model (Groq by default).`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.datalens/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.StringVar(&flagProvider, "provider", "", "AI provider: groq | openrouter | ollama | ark (overrides config)")
	pf.StringVar(&flagModel, "model", "", "model name (overrides config)")
	pf.StringVar(&flagAPIKey, "api-key", "", "provider API key (overrides config and env)")
	pf.StringVar(&flagFileType, "type", "", "declared file type: csv | excel (default: from extension)")
	pf.StringVar(&flagSheet, "sheet", "", "Excel sheet name (default: first sheet)")
	pf.BoolVar(&flagPretty, "pretty", false, "render model answers as styled markdown")
	pf.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	pf.IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	pf.IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	pf.IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	logger.Init(logger.Config{Debug: debug})

	if err := cfgpkg.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c
	applyFlagOverrides(cfg)
}

// applyFlagOverrides copies explicitly set persistent flags onto c.
func applyFlagOverrides(c *cfgpkg.Global) {
	f := rootCmd.PersistentFlags()
	if f.Changed("provider") && flagProvider != "" {
		c.Provider = flagProvider
	}
	if f.Changed("model") && flagModel != "" {
		c.Model = flagModel
	}
	if f.Changed("api-key") && flagAPIKey != "" {
		c.APIKey = flagAPIKey
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		c.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		c.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		c.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		c.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
}
