package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/desertthunder/snaptunes/internal/shared"
)

func TestGeminiService(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		srv := NewGeminiService(GeminiOptions{APIKey: "k"})
		if srv.opts.Model != DefaultGeminiModel {
			t.Errorf("expected default model, got %s", srv.opts.Model)
		}
		if srv.Name() != "gemini" {
			t.Errorf("unexpected name %s", srv.Name())
		}
		if err := srv.Close(); err != nil {
			t.Errorf("close without client should succeed, got %v", err)
		}
	})

	t.Run("Missing API Key", func(t *testing.T) {
		_, err := NewGeminiService(GeminiOptions{}).Complete(context.Background(), "p")
		if !errors.Is(err, shared.ErrMissingAPIKey) {
			t.Errorf("expected ErrMissingAPIKey, got %v", err)
		}
	})

	t.Run("Client Failure Is Not Cached", func(t *testing.T) {
		srv := NewGeminiService(GeminiOptions{APIKey: "k"})
		attempts := 0
		srv.newClient = func(context.Context, ...option.ClientOption) (*genai.Client, error) {
			attempts++
			return nil, errors.New("dial failed")
		}

		for range 2 {
			_, err := srv.Complete(context.Background(), "p")
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		}
		if attempts != 2 {
			t.Errorf("expected a new client attempt per call, got %d", attempts)
		}
		if err := srv.Close(); err != nil {
			t.Errorf("close after failed init should succeed, got %v", err)
		}
	})

	t.Run("candidateText", func(t *testing.T) {
		tc := []struct {
			name string
			resp *genai.GenerateContentResponse
			want string
		}{
			{name: "nil response", resp: nil, want: ""},
			{name: "no candidates", resp: &genai.GenerateContentResponse{}, want: ""},
			{
				name: "nil content",
				resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
				want: "",
			},
			{
				name: "text parts joined",
				resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"songs":`), genai.Text(`[]}`)}},
				}}},
				want: `{"songs":[]}`,
			},
			{
				name: "non-text parts skipped",
				resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}, genai.Text("{}")}},
				}}},
				want: "{}",
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if got := candidateText(tt.resp); got != tt.want {
					t.Errorf("candidateText() = %q, want %q", got, tt.want)
				}
			})
		}
	})
}

func TestNewCompletionService(t *testing.T) {
	cfg := shared.DefaultConfig()

	srv, err := NewCompletionService(cfg)
	if err != nil || srv.Name() != "openai" {
		t.Errorf("expected openai backend, got %v, %v", srv, err)
	}

	cfg.Extractor.Backend = "gemini"
	if srv, err = NewCompletionService(cfg); err != nil || srv.Name() != "gemini" {
		t.Errorf("expected gemini backend, got %v, %v", srv, err)
	}

	cfg.Extractor.Backend = "other"
	if _, err := NewCompletionService(cfg); !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
