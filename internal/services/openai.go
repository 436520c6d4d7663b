// OpenAI chat completions implementation of [CompletionService]
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/snaptunes/internal/shared"
)

const (
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel = "gpt-3.5-turbo-0125"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// OpenAIOptions configures [NewOpenAIService].
type OpenAIOptions struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	HTTPClient  *http.Client
}

// OpenAIService requests JSON-object chat completions.
type OpenAIService struct {
	api         *APIService
	apiKey      string
	model       string
	temperature float64
}

// NewOpenAIService creates the backend. A missing key is reported by [OpenAIService.Complete].
func NewOpenAIService(opts OpenAIOptions) *OpenAIService {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	api := NewAPIService(baseURL, opts.HTTPClient)
	if opts.APIKey != "" {
		api.SetHeader("Authorization", "Bearer "+opts.APIKey)
	}

	return &OpenAIService{api: api, apiKey: opts.APIKey, model: model, temperature: opts.Temperature}
}

// Name returns the backend name
func (s *OpenAIService) Name() string {
	return "openai"
}

// Complete sends prompt as a single user message and returns the first choice's content.
func (s *OpenAIService) Complete(ctx context.Context, prompt string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("%w: openai api key is not set", shared.ErrMissingAPIKey)
	}

	req := chatRequest{
		Model:          s.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    s.temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	resp, err := s.api.PostJSON(ctx, "/chat/completions", req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if !resp.OK() {
		return "", fmt.Errorf("%w: openai status %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	var out chatResponse
	if err := resp.Decode(&out); err != nil {
		return "", fmt.Errorf("%w: malformed openai response: %v", shared.ErrAPIRequest, err)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}
