package llmservice

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"business-chatbot/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		provider string
		name     string
	}{
		{config.ProviderOpenRouter, "OpenRouter"},
		{config.ProviderOpenAI, "OpenAI"},
		{config.ProviderOllama, "Ollama"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			g, err := New(&config.LLMConfig{Provider: tt.provider, Key: "k", Model: "m"})
			require.NoError(t, err)
			assert.Equal(t, tt.name, g.Name())
		})
	}

	_, err := New(&config.LLMConfig{Provider: "bard"})
	assert.ErrorContains(t, err, "unknown generator provider")
}

func TestOpenRouter_Generate(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "https://shop.example", r.Header.Get("Referer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"We open at 9."}}]}`))
	}))
	defer srv.Close()

	g := NewOpenRouter(&config.LLMConfig{
		BaseURL: srv.URL,
		Key:     "secret",
		Model:   "mistralai/mistral-7b-instruct",
		Referer: "https://shop.example",
	})
	answer, err := g.Generate(context.Background(), "prompt text")
	require.NoError(t, err)
	assert.Equal(t, "We open at 9.", answer)

	assert.Equal(t, "mistralai/mistral-7b-instruct", got.Model)
	assert.Equal(t, []chatMessage{{Role: "user", Content: "prompt text"}}, got.Messages)
	assert.Equal(t, 300, got.MaxTokens)
	assert.Equal(t, 0.7, got.Temperature)
}

func TestOpenRouter_NoRefererHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Referer"))
		w.Write([]byte(`{"choices":[{"message":{"content":""}}]}`))
	}))
	defer srv.Close()

	answer, err := NewOpenRouter(&config.LLMConfig{BaseURL: srv.URL, Key: "k"}).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "", answer)
}

func TestOpenRouter_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
		wantIs  error
	}{
		{name: "upstream status", status: http.StatusUnauthorized, body: `{"error":"bad key"}`, wantErr: "request failed: 401"},
		{name: "missing choices", status: http.StatusOK, body: `{"choices":[]}`, wantIs: ErrMalformedResponse},
		{name: "missing content", status: http.StatusOK, body: `{"choices":[{"message":{}}]}`, wantIs: ErrMalformedResponse},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantIs: ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOpenRouter(&config.LLMConfig{BaseURL: srv.URL, Key: "k"}).Generate(context.Background(), "p")
			require.Error(t, err)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestOpenRouter_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	g := NewOpenRouter(&config.LLMConfig{BaseURL: srv.URL, Key: "k"})
	g.client.Timeout = 50 * time.Millisecond

	_, err := g.Generate(context.Background(), "p")
	require.Error(t, err)
	var netErr net.Error
	require.True(t, errors.As(err, &netErr))
	assert.True(t, netErr.Timeout())
}

func TestOllama_Generate(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"model":"mistral","response":"Closed on Sundays.","done":true}`))
	}))
	defer srv.Close()

	g := NewOllama(&config.LLMConfig{BaseURL: srv.URL + "/", Model: "mistral"})
	answer, err := g.Generate(context.Background(), "when?")
	require.NoError(t, err)
	assert.Equal(t, "Closed on Sundays.", answer)
	assert.Equal(t, generateRequest{Model: "mistral", Prompt: "when?", Stream: false}, got)
}

func TestOllama_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"done":true}`))
	}))
	defer srv.Close()

	_, err := NewOllama(&config.LLMConfig{BaseURL: srv.URL}).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrMalformedResponse)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer down.Close()

	_, err = NewOllama(&config.LLMConfig{BaseURL: down.URL}).Generate(context.Background(), "p")
	assert.ErrorContains(t, err, "request failed: 404")
}

func TestOpenAI_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-3.5-turbo",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Yes, we ship abroad."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	g, err := newOpenAI(&config.LLMConfig{BaseURL: srv.URL, Key: "sk-test", Model: "gpt-3.5-turbo"}, srv.Client())
	require.NoError(t, err)

	answer, err := g.Generate(context.Background(), "do you ship abroad?")
	require.NoError(t, err)
	assert.Equal(t, "Yes, we ship abroad.", answer)
	assert.Equal(t, "gpt-3.5-turbo", body["model"])
	assert.EqualValues(t, 0.7, body["temperature"])
}

func TestOpenAI_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	g, err := newOpenAI(&config.LLMConfig{BaseURL: srv.URL, Key: "sk-test", Model: "gpt-3.5-turbo"}, srv.Client())
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "p")
	assert.Error(t, err)
}

func TestNewHTTPClient_FixedTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, newHTTPClient().Timeout)
	assert.Equal(t, 30*time.Second, NewOllama(&config.LLMConfig{}).client.Timeout)
	assert.Equal(t, 30*time.Second, NewOpenRouter(&config.LLMConfig{}).client.Timeout)
}
