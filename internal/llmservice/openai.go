package llmservice

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"business-chatbot/internal/config"
)

// OpenAI generates through langchaingo's OpenAI compatible client.
type OpenAI struct {
	llm llms.Model
}

func NewOpenAI(cfg *config.LLMConfig) (*OpenAI, error) {
	return newOpenAI(cfg, newHTTPClient())
}

func newOpenAI(cfg *config.LLMConfig, client *http.Client) (*OpenAI, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultOpenAIBaseURL
	}
	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(client),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &OpenAI{llm: llm}, nil
}

func (o *OpenAI) Name() string { return "OpenAI" }

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := o.llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(MaxTokens),
		llms.WithTemperature(Temperature),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	return resp.Choices[0].Content, nil
}
