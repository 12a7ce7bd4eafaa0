package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"business-chatbot/internal/models"
)

const ErrorPrefix = "⚠️ Error: "

// Session is the client side conversation: transcript, in-flight flag and
// theme flag. Transcript and theme are written through to storage on every
// change.
type Session struct {
	mu       sync.Mutex
	storage  Storage
	asker    Asker
	messages []models.Message
	inFlight bool
	darkMode bool
}

// NewSession restores the transcript and theme from storage. Unreadable
// entries are logged and replaced with the empty defaults.
func NewSession(storage Storage, asker Asker) *Session {
	s := &Session{storage: storage, asker: asker}

	if data, ok, err := storage.Get(models.TranscriptKey); err != nil {
		log.Warn().Err(err).Msg("Failed to read transcript")
	} else if ok {
		if err := json.Unmarshal(data, &s.messages); err != nil {
			log.Warn().Err(err).Msg("Ignoring corrupt transcript")
			s.messages = nil
		}
	}

	if data, ok, err := storage.Get(models.ThemeKey); err != nil {
		log.Warn().Err(err).Msg("Failed to read theme")
	} else if ok {
		if err := json.Unmarshal(data, &s.darkMode); err != nil {
			log.Warn().Err(err).Msg("Ignoring corrupt theme flag")
			s.darkMode = false
		}
	}
	return s
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *Session) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.darkMode
}

// ToggleTheme flips and persists the theme flag and returns the new value.
func (s *Session) ToggleTheme() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.darkMode = !s.darkMode
	s.persist(models.ThemeKey, s.darkMode)
	return s.darkMode
}

// Begin records the user's question and marks a request in flight. It
// returns the trimmed question, or false when nothing should be sent
// because the input is blank or a request is already in flight.
func (s *Session) Begin(question string) (string, bool) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return "", false
	}
	s.messages = append(s.messages, models.Message{Role: models.RoleUser, Content: question})
	s.inFlight = true
	s.persist(models.TranscriptKey, s.messages)
	return question, true
}

// Resolve settles the in-flight request with either the answer or a
// user-visible error message.
func (s *Session) Resolve(answer string, err error) {
	content := answer
	if err != nil {
		log.Error().Err(err).Msg("Ask failed")
		content = ErrorPrefix + err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, models.Message{Role: models.RoleAssistant, Content: content})
	s.inFlight = false
	s.persist(models.TranscriptKey, s.messages)
}

// Ask sends question without touching the transcript.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	return s.asker.Ask(ctx, question)
}

// Submit runs a full round trip synchronously.
func (s *Session) Submit(ctx context.Context, question string) {
	q, ok := s.Begin(question)
	if !ok {
		return
	}
	answer, err := s.Ask(ctx, q)
	s.Resolve(answer, err)
}

// persist must be called with mu held.
func (s *Session) persist(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to encode client state")
		return
	}
	if err := s.storage.Set(key, data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to persist client state")
	}
}
