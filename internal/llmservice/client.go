package llmservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"business-chatbot/internal/config"
)

const (
	// Timeout bounds the single outbound generation call.
	Timeout = 30 * time.Second

	MaxTokens   = 300
	Temperature = 0.7
)

// ErrMalformedResponse is returned when the provider answered 2xx but the
// expected answer field is missing.
var ErrMalformedResponse = errors.New("malformed provider response")

// Generator turns a prompt into model text with one outbound call.
type Generator interface {
	// Name is the provider name used to prefix failure messages.
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// New builds the generator selected by cfg.Provider.
func New(cfg *config.LLMConfig) (Generator, error) {
	log.Debug().
		Str("provider", cfg.Provider).
		Str("base_url", cfg.BaseURL).
		Str("model", cfg.Model).
		Msg("Creating generator")

	switch cfg.Provider {
	case config.ProviderOpenRouter:
		return NewOpenRouter(cfg), nil
	case config.ProviderOpenAI:
		return NewOpenAI(cfg)
	case config.ProviderOllama:
		return NewOllama(cfg), nil
	default:
		return nil, fmt.Errorf("unknown generator provider: %s", cfg.Provider)
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: Timeout}
}

// statusError reads a bounded slice of a non-2xx body into the error.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("request failed: %d, %s", resp.StatusCode, string(body))
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
