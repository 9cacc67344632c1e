package session

import (
	"context"

	"github.com/KaramelBytes/datalens-cli/internal/ai"
	"github.com/KaramelBytes/datalens-cli/internal/answer"
)

// ProviderAuthenticator authenticates against a configured AI provider and
// wraps the resulting client in an answer.Service.
type ProviderAuthenticator struct {
	Provider string
	Model    string
	Runtime  ai.RuntimeConfig
	Answer   answer.Options
}

// Authenticate implements Authenticator.
func (p ProviderAuthenticator) Authenticate(ctx context.Context, credential string) (AnsweringService, error) {
	client, err := ai.Authenticate(ctx, p.Provider, credential, p.Model, p.Runtime)
	if err != nil {
		return nil, err
	}
	opt := p.Answer
	opt.Model = client.Model
	if opt.ContextTokens <= 0 || opt.ContextTokens > client.ContextTokens()/2 {
		opt.ContextTokens = client.ContextTokens() / 2
	}
	return answer.New(client, opt), nil
}
