package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"business-chatbot/internal/llmservice"
	"business-chatbot/internal/models"
)

// RequestTimeout leaves room for retrieval on top of the service's own
// generation timeout, so its error reply arrives before the client gives up.
const RequestTimeout = llmservice.Timeout + 10*time.Second

// Asker sends one question to the answer service.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// HTTPAsker posts to the /ask endpoint of the answer service.
type HTTPAsker struct {
	baseURL string
	client  *http.Client
}

func NewHTTPAsker(baseURL string) *HTTPAsker {
	return &HTTPAsker{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: RequestTimeout},
	}
}

type askReply struct {
	Answer *string `json:"answer"`
	Error  string  `json:"error"`
	Detail string  `json:"detail"`
}

func (a *HTTPAsker) Ask(ctx context.Context, question string) (string, error) {
	body, err := json.Marshal(models.AskRequest{Question: question})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/ask", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var reply askReply
	decodeErr := json.Unmarshal(data, &reply)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && reply.Detail != "" {
			return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, reply.Detail)
		}
		if decodeErr == nil && reply.Error != "" {
			return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, reply.Error)
		}
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("invalid response: %w", decodeErr)
	}
	if reply.Error != "" {
		return "", errors.New(reply.Error)
	}
	if reply.Answer == nil {
		return "", errors.New("response has no answer")
	}
	return *reply.Answer, nil
}
