// Package answer asks a language model questions about a loaded dataset.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KaramelBytes/datalens-cli/internal/ai"
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/utils"
)

// Persona is the system prompt every question is asked under.
const Persona = "You are an experienced Python expert and Data Scientist. " +
	"Answer questions about the user's dataset clearly and concisely, " +
	"using only the dataset summary provided. If the summary does not contain " +
	"enough information to answer, say so instead of guessing."

// Generator is the part of an AI runtime the service needs.
type Generator interface {
	Generate(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error)
}

// Options tune prompt size and sampling.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// ContextTokens is the budget for the dataset summary; 0 uses DefaultContextTokens.
	ContextTokens int
	// SampleRows is the number of rows included in the summary.
	SampleRows int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultContextTokens keeps the summary well inside small context windows.
const DefaultContextTokens = 6000

// AnsweringServiceError reports a failed delegation to the model.
type AnsweringServiceError struct {
	Err error
}

func (e *AnsweringServiceError) Error() string {
	return fmt.Sprintf("answering service failed: %v", e.Err)
}

func (e *AnsweringServiceError) Unwrap() error { return e.Err }

// Service answers General-intent queries.
type Service struct {
	gen Generator
	opt Options
}

// New returns a Service asking gen.
func New(gen Generator, opt Options) *Service {
	if opt.ContextTokens <= 0 {
		opt.ContextTokens = DefaultContextTokens
	}
	if opt.SampleRows <= 0 {
		opt.SampleRows = 5
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	return &Service{gen: gen, opt: opt}
}

// Answer sends query with the dataset as context and returns the model text
// verbatim. Authentication failures are returned as *ai.AuthError; any other
// failure is an *AnsweringServiceError.
func (s *Service) Answer(ctx context.Context, ds *dataset.Dataset, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", &AnsweringServiceError{Err: errors.New("query is empty")}
	}
	msgs, tokens := s.Messages(ds, query)
	s.opt.Logger.Debug("asking model", "model", s.opt.Model, "prompt_tokens", tokens)

	resp, err := s.gen.Generate(ctx, ai.GenerateRequest{
		Model:       s.opt.Model,
		Messages:    msgs,
		MaxTokens:   s.opt.MaxTokens,
		Temperature: s.opt.Temperature,
	})
	if err != nil {
		if ai.IsAuth(err) {
			return "", err
		}
		return "", &AnsweringServiceError{Err: err}
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &AnsweringServiceError{Err: errors.New("model returned an empty response")}
	}
	if resp.RequestID != "" {
		s.opt.Logger.Debug("model answered", "request_id", resp.RequestID, "completion_tokens", resp.Usage.CompletionTokens)
	}
	return text, nil
}

// Messages builds the chat messages for query and returns them with an
// estimate of their total tokens.
func (s *Service) Messages(ds *dataset.Dataset, query string) ([]ai.Message, int) {
	var sb strings.Builder
	if ds != nil {
		summary, cut := utils.TruncateLines(ds.Summary(s.opt.SampleRows), s.opt.ContextTokens)
		if cut {
			s.opt.Logger.Debug("dataset summary truncated", "limit_tokens", s.opt.ContextTokens)
		}
		sb.WriteString(summary)
		sb.WriteString("\n\n")
	}
	sb.WriteString("[QUESTION]\n")
	sb.WriteString(query)
	sb.WriteString("\n")

	user := sb.String()
	msgs := []ai.Message{
		{Role: "system", Content: Persona},
		{Role: "user", Content: user},
	}
	return msgs, utils.CountTokens(Persona) + utils.CountTokens(user)
}
