package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Provider specifics
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`
	ArkRegion  string `mapstructure:"ark_region" yaml:"ark_region,omitempty"`

	// Charts
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`
	ChartFormat string `mapstructure:"chart_format" yaml:"chart_format"`

	// Datasets and prompts
	MaxRows           int `mapstructure:"max_rows" yaml:"max_rows"`
	PreviewRows       int `mapstructure:"preview_rows" yaml:"preview_rows"`
	ContextTokenLimit int `mapstructure:"context_token_limit" yaml:"context_token_limit"`

	// HTTP API
	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"api_key", "provider", "model", "base_url", "max_tokens", "temperature",
	"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms",
	"ollama_host", "ark_region", "chart_width", "chart_height", "chart_format",
	"max_rows", "preview_rows", "context_token_limit", "server_addr",
}

// DefaultPath returns ~/.datalens/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datalens", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datalens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadDotEnv loads a .env file from the working directory when present.
// Variables already set in the environment win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("provider", "groq")
	v.SetDefault("model", "")
	v.SetDefault("base_url", "")
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("temperature", 0.2)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("ark_region", "cn-beijing")
	// Charts
	v.SetDefault("chart_width", 1024)
	v.SetDefault("chart_height", 640)
	v.SetDefault("chart_format", "png")
	// Datasets
	v.SetDefault("max_rows", 0)
	v.SetDefault("preview_rows", 5)
	v.SetDefault("context_token_limit", 6000)
	v.SetDefault("server_addr", "127.0.0.1:8080")
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
// GROQ_API_KEY is honored when DATALENS_API_KEY is unset.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATALENS")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GROQ_API_KEY")
	}
	return &c, nil
}

// Set assigns key on c from its string form. Values are decoded the same way
// file values are, so "1024" sets an int key.
func (c *Global) Set(key, value string) error {
	known := false
	for _, k := range Keys {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown config key %q", key)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	cur := map[string]any{}
	if err := yaml.Unmarshal(b, &cur); err != nil {
		return fmt.Errorf("unmarshal yaml: %w", err)
	}
	v := viper.New()
	if err := v.MergeConfigMap(cur); err != nil {
		return fmt.Errorf("merge config: %w", err)
	}
	v.Set(key, value)
	var out Global
	if err := v.Unmarshal(&out); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*c = out
	return nil
}
