package answer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/KaramelBytes/datalens-cli/internal/ai"
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
)

type stubGen struct {
	req  ai.GenerateRequest
	text string
	err  error
}

func (s *stubGen) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: s.text}}}}, nil
}

func sample() *dataset.Dataset {
	return dataset.New("tracks.csv", []string{"artist_name", "popularity"}, [][]string{
		{"A", "80"}, {"B", "90"}, {"A", "70"},
	})
}

func TestAnswerReturnsTextVerbatim(t *testing.T) {
	g := &stubGen{text: "  The average popularity is 80.\n"}
	s := New(g, Options{Model: "llama-3.3-70b-versatile", MaxTokens: 256, Temperature: 0.1})
	got, err := s.Answer(context.Background(), sample(), "what is the average popularity?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != "  The average popularity is 80.\n" {
		t.Fatalf("expected verbatim text, got %q", got)
	}
	if g.req.Model != "llama-3.3-70b-versatile" || g.req.MaxTokens != 256 {
		t.Fatalf("unexpected request: %+v", g.req)
	}
	if len(g.req.Messages) != 2 || g.req.Messages[0].Role != "system" || g.req.Messages[0].Content != Persona {
		t.Fatalf("expected persona system message, got %+v", g.req.Messages)
	}
	user := g.req.Messages[1].Content
	for _, want := range []string{"[DATASET SUMMARY]", "popularity", "[QUESTION]\nwhat is the average popularity?"} {
		if !strings.Contains(user, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestAnswerErrors(t *testing.T) {
	auth := &ai.AuthError{APIError: &ai.APIError{StatusCode: http.StatusUnauthorized, Message: "invalid key"}}
	cases := []struct {
		name     string
		gen      *stubGen
		query    string
		wantAuth bool
	}{
		{"auth stays auth", &stubGen{err: auth}, "hi", true},
		{"provider failure", &stubGen{err: errors.New("boom")}, "hi", false},
		{"empty response", &stubGen{text: "   "}, "hi", false},
		{"empty query", &stubGen{text: "x"}, "  ", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.gen, Options{}).Answer(context.Background(), sample(), tc.query)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := ai.IsAuth(err); got != tc.wantAuth {
				t.Fatalf("IsAuth=%v want %v (%v)", got, tc.wantAuth, err)
			}
			var ase *AnsweringServiceError
			if !tc.wantAuth && !errors.As(err, &ase) {
				t.Fatalf("expected AnsweringServiceError, got %T", err)
			}
		})
	}
}

func TestMessagesTruncateLargeSummary(t *testing.T) {
	rows := make([][]string, 0, 500)
	header := make([]string, 0, 300)
	for i := 0; i < 300; i++ {
		header = append(header, strings.Repeat("c", 20)+string(rune('a'+i%26))+strings.Repeat("x", i%7))
	}
	for i := 0; i < 5; i++ {
		row := make([]string, len(header))
		for j := range row {
			row[j] = "v"
		}
		rows = append(rows, row)
	}
	s := New(&stubGen{}, Options{ContextTokens: 200})
	msgs, tokens := s.Messages(dataset.New("wide.csv", header, rows), "what columns exist?")
	if !strings.Contains(msgs[1].Content, "... (truncated)") {
		t.Fatalf("expected truncation marker")
	}
	if !strings.HasSuffix(msgs[1].Content, "[QUESTION]\nwhat columns exist?\n") {
		t.Fatalf("question must survive truncation")
	}
	if tokens > 400 {
		t.Fatalf("prompt too large: %d tokens", tokens)
	}
}

func TestAnswerLogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})).With("requestId", "req-42")
	s := New(&stubGen{text: "ok"}, Options{Model: "m", Logger: log})
	if _, err := s.Answer(context.Background(), sample(), "how many rows?"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "asking model") || !strings.Contains(out, "requestId=req-42") {
		t.Fatalf("expected debug line on injected logger, got %q", out)
	}
}
