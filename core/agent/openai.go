package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"AutoQFM/model"
)

// OpenAIConfig configures the OpenAI-compatible text service.
type OpenAIConfig struct {
	APIBaseURL  string
	APIKey      string
	MaxTokens   int
	Temperature float64
}

// OpenAIService implements TextService against an OpenAI-compatible
// chat-completions endpoint.
type OpenAIService struct {
	config     *OpenAIConfig
	httpClient *http.Client
}

// NewOpenAIService creates the service.
func NewOpenAIService(config *OpenAIConfig) *OpenAIService {
	return &OpenAIService{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Generate sends a single-prompt chat completion for one model. Quota and
// missing-model responses map to the gateway's sentinel errors so the
// ladder can distinguish them from generic failures.
func (s *OpenAIService) Generate(ctx context.Context, modelID string, prompt string) (string, error) {
	reqBody := model.OpenAIChatRequest{
		Model: modelID,
		Messages: []model.OpenAIChatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
		Stream:      false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return "", fmt.Errorf("model %s: %w", modelID, ErrQuotaExceeded)
	case http.StatusNotFound:
		return "", fmt.Errorf("model %s: %w", modelID, ErrModelNotFound)
	default:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp model.OpenAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}
