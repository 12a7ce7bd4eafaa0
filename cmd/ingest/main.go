package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"business-chatbot/internal/config"
	"business-chatbot/internal/embedding"
	"business-chatbot/internal/helper"
	"business-chatbot/internal/logging"
	"business-chatbot/internal/parser"
	"business-chatbot/internal/vectorstore"
)

const configFilePath = "./configs/config.yaml"

type resetter interface {
	Reset(ctx context.Context) error
}

type initializer interface {
	Init(ctx context.Context, vectorSize int) error
}

func main() {
	configPath := flag.String("config", configFilePath, "Path to the YAML config file")
	dryRun := flag.Bool("dry-run", false, "Print parsed chunks, do not embed or store them")
	reset := flag.Bool("reset", false, "Empty the document collection before ingesting")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: ingest [-config path] [-dry-run] [-reset] file...\nSupported formats: %v\n", parser.SupportedFormats())
		flag.PrintDefaults()
	}
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// ingestion never generates, so only the embedder and store are checked
	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.ValidateStore()
	}
	if err != nil {
		logging.Setup(config.LogConfig{}, os.Stderr)
		log.Fatal().Err(err).Msg("Error loading config")
	}
	logging.Setup(cfg.Log, os.Stderr)

	ctx := context.Background()
	p := parser.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)

	if *dryRun {
		for _, file := range files {
			chunks, err := p.Parse(file)
			if err != nil {
				log.Error().Err(err).Str("file", file).Msg("Error parsing document")
				continue
			}
			log.Info().Str("file", file).Int("chunks", len(chunks)).Msg("Parsed document")
			helper.PrettyPrint(os.Stdout, chunks)
		}
		return
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store, err := vectorstore.Open(ctx, cfg, embedding.Func(embedder))
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}

	if r, ok := store.(resetter); ok && *reset {
		if err := r.Reset(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error clearing documents")
		}
		log.Info().Msg("Cleared document collection")
	}
	if i, ok := store.(initializer); ok {
		if err := i.Init(ctx, cfg.Database.VectorSize); err != nil {
			log.Fatal().Err(err).Msg("Error initializing database")
		}
	}

	var stored, failed int
	for _, file := range files {
		chunks, err := p.Parse(file)
		if err != nil {
			log.Error().Err(err).Str("file", file).Msg("Error parsing document")
			failed++
			continue
		}

		chunkEmbeddings, err := embedding.GenerateEmbedding(ctx, embedder, file, chunks)
		if err != nil {
			log.Error().Err(err).Str("file", file).Msg("Error generating embedding")
			failed++
			continue
		}

		if err := store.AddChunks(ctx, chunkEmbeddings); err != nil {
			log.Error().Err(err).Str("file", file).Msg("Error storing document")
			failed++
			continue
		}
		stored += len(chunkEmbeddings)
		log.Info().Str("file", file).Int("chunks", len(chunkEmbeddings)).Msg("Stored document")
	}

	// an in-memory chromem collection is exported here
	if err := store.Close(); err != nil {
		log.Fatal().Err(err).Msg("Error closing vector store")
	}

	log.Info().Int("chunks", stored).Int("failed_files", failed).Msg("Ingestion finished")
	if failed > 0 {
		os.Exit(1)
	}
}
