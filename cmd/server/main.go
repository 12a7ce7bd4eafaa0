package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"business-chatbot/internal/api"
	"business-chatbot/internal/config"
	"business-chatbot/internal/embedding"
	"business-chatbot/internal/llmservice"
	"business-chatbot/internal/logging"
	"business-chatbot/internal/rag"
	"business-chatbot/internal/vectorstore"
)

const configFilePath = "./configs/config.yaml"

func main() {
	configPath := flag.String("config", configFilePath, "Path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// logger is not configured yet, use the console default
		logging.Setup(config.LogConfig{}, os.Stderr)
		log.Fatal().Err(err).Msg("Error loading config")
	}
	logging.Setup(cfg.Log, os.Stdout)

	log.Debug().
		Str("provider", cfg.Generator.Provider).
		Str("model", cfg.Generator.Model).
		Str("vector_store", cfg.VectorStore.Type).
		Bool("strict_status", cfg.Server.StrictStatus).
		Msg("Loaded config")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store, err := vectorstore.Open(ctx, cfg, embedding.Func(embedder))
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}
	defer store.Close()

	generator, err := llmservice.New(&cfg.Generator)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generator")
	}

	handler := api.NewHandler(rag.New(store, generator), cfg.Server.StrictStatus)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// generation alone may take up to llmservice.Timeout
		WriteTimeout: llmservice.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	idle := make(chan struct{})
	go func() {
		defer close(idle)
		<-ctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), llmservice.Timeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error shutting down server")
		}
	}()

	log.Info().Str("addr", server.Addr).Str("provider", generator.Name()).Msg("Answer service ready")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server error")
	}
	<-idle
}
