package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/rs/zerolog/log"

	"business-chatbot/internal/models"
	"business-chatbot/internal/rag"
)

// Answerer is the question answering pipeline behind POST /ask.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

type Handler struct {
	answerer Answerer
	// strict swaps the historical always-200/500 statuses for 400/502/504
	strict bool
}

func NewHandler(answerer Answerer, strict bool) *Handler {
	return &Handler{answerer: answerer, strict: strict}
}

// Health handles GET /.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok", Message: models.HealthMessage})
}

// Ask handles POST /ask.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	// an undecodable body or a non-string question counts as missing
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		status := http.StatusOK
		if h.strict {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, models.ErrorResponse{Error: models.MissingQuestion})
		return
	}

	answer, err := h.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		log.Error().Err(err).Str("question", req.Question).Msg("Failed to answer question")
		writeJSON(w, h.failureStatus(err), models.DetailResponse{Detail: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, models.AskResponse{Answer: answer})
}

func (h *Handler) failureStatus(err error) int {
	if !h.strict {
		return http.StatusInternalServerError
	}

	var ragErr *rag.Error
	if !errors.As(err, &ragErr) || ragErr.Stage != rag.StageGeneration {
		return http.StatusInternalServerError
	}
	if isTimeout(err) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
