package ai

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(ctx context.Context, cfg RuntimeConfig) (Runtime, error)

// RuntimeConfig carries the knobs shared by runtimes.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	RetryMax    int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// APIKey is the session credential.
	APIKey string
	// BaseURL overrides the preset endpoint (Ollama host for ollama).
	BaseURL string
	// Region is used by Ark.
	Region string
	// Model is needed by runtimes that bind the model at construction (Ark).
	Model string
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[name] = f }

// Providers lists registered provider names.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NewRuntime creates the Runtime registered for provider.
func NewRuntime(ctx context.Context, provider string, cfg RuntimeConfig) (Runtime, error) {
	name := NormalizeProvider(provider)
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (available: %v)", provider, Providers())
	}
	if cfg.BaseURL == "" {
		if p, ok := presets[name]; ok {
			cfg.BaseURL = p.BaseURL
		}
	}
	return f(ctx, cfg)
}

func init() {
	openAICompatible := func(_ context.Context, c RuntimeConfig) (Runtime, error) {
		return NewClient(c.APIKey, c.BaseURL, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay), nil
	}
	RegisterRuntime(ProviderGroq, openAICompatible)
	RegisterRuntime(ProviderOpenRouter, openAICompatible)
	RegisterRuntime(ProviderOllama, func(_ context.Context, c RuntimeConfig) (Runtime, error) {
		if c.RetryMax <= 0 {
			c.RetryMax = 2
		}
		if c.BaseDelay <= 0 {
			c.BaseDelay = 200 * time.Millisecond
		}
		if c.MaxDelay <= 0 {
			c.MaxDelay = time.Second
		}
		return NewOllamaClient(c.BaseURL, c.HTTPTimeout, c.RetryMax, c.BaseDelay, c.MaxDelay), nil
	})
	RegisterRuntime(ProviderArk, func(ctx context.Context, c RuntimeConfig) (Runtime, error) {
		return NewArkRuntime(ctx, c)
	})
}
