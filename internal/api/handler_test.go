package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"business-chatbot/internal/rag"
)

type fakeAnswerer struct {
	answer   string
	err      error
	question string
	calls    int
}

func (f *fakeAnswerer) Answer(_ context.Context, question string) (string, error) {
	f.calls++
	f.question = question
	return f.answer, f.err
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	rec, body := do(t, NewRouter(NewHandler(&fakeAnswerer{}, false)), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"status": "ok", "message": "Backend is running"}, body)
}

func TestAsk_Success(t *testing.T) {
	ans := &fakeAnswerer{answer: "We open at 9."}
	rec, body := do(t, NewRouter(NewHandler(ans, false)), http.MethodPost, "/ask", `{"question":"When do you open?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"answer": "We open at 9."}, body)
	assert.Equal(t, "When do you open?", ans.question)
}

func TestAsk_MissingQuestion(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"question":""}`,
		`{"question":null}`,
		`{"question":42}`,
		`not json`,
		``,
	}
	for _, strict := range []bool{false, true} {
		for _, b := range bodies {
			ans := &fakeAnswerer{}
			rec, body := do(t, NewRouter(NewHandler(ans, strict)), http.MethodPost, "/ask", b)

			want := http.StatusOK
			if strict {
				want = http.StatusBadRequest
			}
			assert.Equal(t, want, rec.Code, b)
			assert.Equal(t, map[string]any{"error": "Missing question"}, body, b)
			assert.Zero(t, ans.calls, "answerer must not be called for %q", b)
		}
	}
}

func TestAsk_Failures(t *testing.T) {
	retrieval := &rag.Error{Stage: rag.StageRetrieval, Source: "Retrieval", Err: errors.New("collection missing")}
	upstream := &rag.Error{Stage: rag.StageGeneration, Source: "OpenRouter", Err: errors.New("request failed: 401, bad key")}
	deadline := &rag.Error{Stage: rag.StageGeneration, Source: "Ollama", Err: context.DeadlineExceeded}
	netTimeout := &rag.Error{Stage: rag.StageGeneration, Source: "OpenAI", Err: timeoutError{}}

	tests := []struct {
		name       string
		err        error
		strict     bool
		wantStatus int
		wantDetail string
	}{
		{"legacy retrieval", retrieval, false, 500, "Retrieval error: collection missing"},
		{"legacy upstream", upstream, false, 500, "OpenRouter error: request failed: 401, bad key"},
		{"legacy timeout", deadline, false, 500, "Ollama error: context deadline exceeded"},
		{"strict retrieval", retrieval, true, 500, "Retrieval error: collection missing"},
		{"strict upstream", upstream, true, 502, "OpenRouter error: request failed: 401, bad key"},
		{"strict deadline", deadline, true, 504, "Ollama error: context deadline exceeded"},
		{"strict net timeout", netTimeout, true, 504, "OpenAI error: i/o timeout"},
		{"strict untyped", errors.New("boom"), true, 500, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, NewRouter(NewHandler(&fakeAnswerer{err: tt.err}, tt.strict)), http.MethodPost, "/ask", `{"question":"q"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, map[string]any{"detail": tt.wantDetail}, body)
		})
	}
}

func TestCORS(t *testing.T) {
	router := NewRouter(NewHandler(&fakeAnswerer{}, false))

	rec, _ := do(t, router, http.MethodOptions, "/ask", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Headers"))

	rec, _ = do(t, router, http.MethodGet, "/", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	router := NewRouter(NewHandler(&fakeAnswerer{}, false))

	rec, _ := do(t, router, http.MethodGet, "/", "")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRecoverer(t *testing.T) {
	router := NewRouter(NewHandler(panicAnswerer{}, false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":"q"}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type panicAnswerer struct{}

func (panicAnswerer) Answer(context.Context, string) (string, error) {
	panic("unexpected")
}
