package llmservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"business-chatbot/internal/config"
)

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

// Ollama calls the non-streaming /api/generate endpoint of a local server.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllama(cfg *config.LLMConfig) *Ollama {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultOllamaBaseURL
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   cfg.Model,
		client:  newHTTPClient(),
	}
}

func (o *Ollama) Name() string { return "Ollama" }

func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	jsonData, err := json.Marshal(generateRequest{Model: o.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", statusError(resp)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.Response == nil {
		return "", fmt.Errorf("%w: missing response", ErrMalformedResponse)
	}
	return *out.Response, nil
}
