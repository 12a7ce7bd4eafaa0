package llmservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"business-chatbot/internal/config"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// pointers distinguish a missing field from an empty answer
type chatCompletionResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenRouter calls a chat-completion endpoint with a bearer key.
type OpenRouter struct {
	url     string
	key     string
	model   string
	referer string
	client  *http.Client
}

func NewOpenRouter(cfg *config.LLMConfig) *OpenRouter {
	url := cfg.BaseURL
	if url == "" {
		url = config.DefaultOpenRouterURL
	}
	return &OpenRouter{
		url:     url,
		key:     cfg.Key,
		model:   cfg.Model,
		referer: cfg.Referer,
		client:  newHTTPClient(),
	}
}

func (o *OpenRouter) Name() string { return "OpenRouter" }

func (o *OpenRouter) Generate(ctx context.Context, prompt string) (string, error) {
	payload := chatCompletionRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+o.key)
	req.Header.Set("Content-Type", "application/json")
	if o.referer != "" {
		req.Header.Set("Referer", o.referer)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", statusError(resp)
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message == nil || out.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("%w: missing choices[0].message.content", ErrMalformedResponse)
	}
	return *out.Choices[0].Message.Content, nil
}
