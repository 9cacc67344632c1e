package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// EinoRuntime answers through a compiled eino chain: a system/user prompt
// template feeding a chat model.
type EinoRuntime struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkRuntime builds an eino chain over a Volcengine Ark chat model.
// The Ark model is bound at construction, so cfg.Model is required.
func NewArkRuntime(ctx context.Context, cfg RuntimeConfig) (*EinoRuntime, error) {
	if cfg.APIKey == "" {
		return nil, &AuthError{APIError: &APIError{StatusCode: http.StatusUnauthorized, Message: "ark api key is missing"}}
	}
	if cfg.Model == "" {
		return nil, errors.New("ark requires a model (endpoint id)")
	}
	region := cfg.Region
	if region == "" {
		region = "cn-beijing"
	}
	cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		Region:  region,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("create ark chat model: %w", err)
	}
	return NewEinoRuntime(ctx, cm)
}

// NewEinoRuntime compiles the prompt chain around any eino chat model.
func NewEinoRuntime(ctx context.Context, cm model.BaseChatModel) (*EinoRuntime, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(tpl)
	chain.AppendChatModel(cm)
	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile chat chain: %w", err)
	}
	return &EinoRuntime{chain: runnable}, nil
}

// Generate folds the request into the template variables and runs the chain.
// System messages fill {system}; everything else is joined into {query}.
func (r *EinoRuntime) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var system, query string
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system += m.Content
		default:
			if query != "" {
				query += "\n\n"
			}
			query += m.Content
		}
	}
	if query == "" {
		return nil, errors.New("messages cannot be empty")
	}
	msg, err := r.chain.Invoke(ctx, map[string]any{
		"system": system,
		"query":  query,
	})
	if err != nil {
		return nil, fmt.Errorf("run chat chain: %w", err)
	}
	return &GenerateResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: msg.Content}}}}, nil
}
