// Gemini implementation of [CompletionService]
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/desertthunder/snaptunes/internal/shared"
)

const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiOptions configures [NewGeminiService].
type GeminiOptions struct {
	APIKey      string
	Model       string
	Temperature float64
	// ClientOptions are appended after the API key (e.g. a custom endpoint).
	ClientOptions []option.ClientOption
}

// GeminiService requests JSON responses from a Gemini model.
// The client is created on first use; a failed attempt is retried on the next call.
type GeminiService struct {
	opts      GeminiOptions
	newClient func(ctx context.Context, opts ...option.ClientOption) (*genai.Client, error)

	mu     sync.Mutex
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiService creates the backend. A missing key is reported by [GeminiService.Complete].
func NewGeminiService(opts GeminiOptions) *GeminiService {
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}
	return &GeminiService{opts: opts, newClient: genai.NewClient}
}

// Name returns the backend name
func (s *GeminiService) Name() string {
	return "gemini"
}

func (s *GeminiService) init(ctx context.Context) (*genai.GenerativeModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model != nil {
		return s.model, nil
	}

	opts := append([]option.ClientOption{option.WithAPIKey(s.opts.APIKey)}, s.opts.ClientOptions...)
	client, err := s.newClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v", shared.ErrServiceUnavailable, err)
	}

	model := client.GenerativeModel(s.opts.Model)
	model.SetTemperature(float32(s.opts.Temperature))
	model.ResponseMIMEType = "application/json"

	s.client, s.model = client, model
	return model, nil
}

// Complete sends prompt and concatenates the text parts of the first candidate.
func (s *GeminiService) Complete(ctx context.Context, prompt string) (string, error) {
	if s.opts.APIKey == "" {
		return "", fmt.Errorf("%w: gemini api key is not set", shared.ErrMissingAPIKey)
	}
	model, err := s.init(ctx)
	if err != nil {
		return "", err
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: gemini: %v", shared.ErrAPIRequest, err)
	}
	return candidateText(resp), nil
}

// Close releases the underlying client, if one was created.
func (s *GeminiService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client, s.model = nil, nil
	return err
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

// NewCompletionService selects the backend named by cfg.Extractor.Backend.
func NewCompletionService(cfg *shared.Config) (CompletionService, error) {
	switch cfg.Extractor.Backend {
	case "", "openai":
		return NewOpenAIService(OpenAIOptions{
			APIKey:      cfg.Credentials.OpenAI.APIKey,
			Model:       cfg.Credentials.OpenAI.Model,
			BaseURL:     cfg.Credentials.OpenAI.BaseURL,
			Temperature: cfg.Extractor.Temperature,
		}), nil
	case "gemini":
		return NewGeminiService(GeminiOptions{
			APIKey:      cfg.Credentials.Gemini.APIKey,
			Model:       cfg.Credentials.Gemini.Model,
			Temperature: cfg.Extractor.Temperature,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown extractor backend %q", shared.ErrInvalidConfig, cfg.Extractor.Backend)
	}
}
