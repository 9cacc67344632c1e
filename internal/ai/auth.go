package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// AuthenticatedClient is a Runtime bound to one provider credential.
//
// Create it once per credential with Authenticate and pass it explicitly to
// whatever answers questions; callers that see the same credential again
// should keep the existing client (see Matches) instead of rebuilding it.
type AuthenticatedClient struct {
	Provider string
	Model    string
	runtime  Runtime
	key      string
}

// Authenticate validates the credential for provider and builds its runtime.
// Providers that need a key reject an empty credential with *AuthError.
func Authenticate(ctx context.Context, provider, credential, model string, cfg RuntimeConfig) (*AuthenticatedClient, error) {
	name := NormalizeProvider(provider)
	credential = strings.TrimSpace(credential)
	preset, known := presets[name]
	if known && preset.RequiresKey && credential == "" {
		return nil, &AuthError{APIError: &APIError{StatusCode: http.StatusUnauthorized, Message: "no api key provided for " + name}}
	}
	if model == "" && known {
		model = preset.DefaultModel
	}
	cfg.APIKey = credential
	cfg.Model = model
	rt, err := NewRuntime(ctx, name, cfg)
	if err != nil {
		return nil, err
	}
	return &AuthenticatedClient{
		Provider: name,
		Model:    model,
		runtime:  rt,
		key:      fingerprint(name, credential),
	}, nil
}

// NewAuthenticatedClient wraps an existing runtime, e.g. a stand-in in tests.
func NewAuthenticatedClient(provider, credential, model string, rt Runtime) *AuthenticatedClient {
	name := NormalizeProvider(provider)
	return &AuthenticatedClient{Provider: name, Model: model, runtime: rt, key: fingerprint(name, strings.TrimSpace(credential))}
}

// Matches reports whether the client was built for this provider and credential.
func (c *AuthenticatedClient) Matches(provider, credential string) bool {
	if c == nil {
		return false
	}
	return c.key == fingerprint(NormalizeProvider(provider), strings.TrimSpace(credential))
}

// Generate forwards to the runtime, defaulting the model.
func (c *AuthenticatedClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		req.Model = c.Model
	}
	return c.runtime.Generate(ctx, req)
}

// ContextTokens returns the approximate context window of the provider.
func (c *AuthenticatedClient) ContextTokens() int {
	if p, ok := presets[c.Provider]; ok {
		return p.ContextTokens
	}
	return 8192
}

func fingerprint(provider, credential string) string {
	sum := sha256.Sum256([]byte(provider + "\x00" + credential))
	return hex.EncodeToString(sum[:])
}
