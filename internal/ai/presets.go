package ai

import "strings"

const (
	GroqBaseURL       = "https://api.groq.com/openai/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	OllamaHost        = "http://127.0.0.1:11434"
	ArkBaseURL        = "https://ark.cn-beijing.volces.com/api/v3"
)

// Preset holds the defaults a provider starts from.
type Preset struct {
	Provider      string
	BaseURL       string
	DefaultModel  string
	ContextTokens int
	RequiresKey   bool
}

var presets = map[string]Preset{
	ProviderGroq: {
		Provider:      ProviderGroq,
		BaseURL:       GroqBaseURL,
		DefaultModel:  "llama-3.3-70b-versatile",
		ContextTokens: 128000,
		RequiresKey:   true,
	},
	ProviderOpenRouter: {
		Provider:      ProviderOpenRouter,
		BaseURL:       OpenRouterBaseURL,
		DefaultModel:  "meta-llama/llama-3.3-70b-instruct",
		ContextTokens: 128000,
		RequiresKey:   true,
	},
	ProviderOllama: {
		Provider:      ProviderOllama,
		BaseURL:       OllamaHost,
		DefaultModel:  "llama3.1:8b-instruct",
		ContextTokens: 8192,
	},
	ProviderArk: {
		Provider:      ProviderArk,
		BaseURL:       ArkBaseURL,
		ContextTokens: 32000,
		RequiresKey:   true,
	},
}

// NormalizeProvider maps user spellings to a provider id.
func NormalizeProvider(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "groq":
		return ProviderGroq
	case "openrouter":
		return ProviderOpenRouter
	case "ollama", "local":
		return ProviderOllama
	case "ark", "volcengine":
		return ProviderArk
	default:
		return strings.ToLower(strings.TrimSpace(name))
	}
}

// PresetFor returns the preset of a provider, if known.
func PresetFor(provider string) (Preset, bool) {
	p, ok := presets[NormalizeProvider(provider)]
	return p, ok
}
