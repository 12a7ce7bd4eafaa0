package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"business-chatbot/internal/chat"
	"business-chatbot/internal/config"
	"business-chatbot/internal/logging"
	"business-chatbot/internal/tui"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("url", envOr("CHATBOT_API_URL", "http://localhost:8000"), "Base URL of the answer service")
	statePath := flag.String("state", defaultStatePath(), "File holding the transcript and theme")
	logPath := flag.String("log", "", "Write debug logs to this file (default: no logs)")
	flag.Parse()

	// the terminal belongs to the UI, so logs go to a file or nowhere
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logging.Setup(config.LogConfig{Level: "debug"}, f)
	} else {
		log.Logger = zerolog.New(io.Discard)
	}

	session := chat.NewSession(chat.NewFileStorage(*statePath), chat.NewHTTPAsker(*apiURL))
	log.Info().Str("url", *apiURL).Int("messages", len(session.Messages())).Msg("Starting chat client")

	if _, err := tea.NewProgram(tui.New(session), tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chat client error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "chat_state.json"
	}
	return filepath.Join(dir, "business-chatbot", "chat_state.json")
}
