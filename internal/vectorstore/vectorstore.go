package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"business-chatbot/internal/chromemdb"
	"business-chatbot/internal/config"
	"business-chatbot/internal/db"
	"business-chatbot/internal/helper"
	"business-chatbot/internal/models"
)

// Store is the document collection: similarity queries for the answer
// service and chunk writes for ingestion.
type Store interface {
	Query(ctx context.Context, text string, n int) ([]string, error)
	AddChunks(ctx context.Context, chunks []models.ChunkEmbedding) error
	Close() error
}

// Open connects to the store selected by cfg.VectorStore.Type. embed turns
// query texts into vectors.
func Open(ctx context.Context, cfg *config.Config, embed chromem.EmbeddingFunc) (Store, error) {
	switch cfg.VectorStore.Type {
	case config.StoreChromem:
		m, err := openChromem(ctx, &cfg.VectorStore, embed)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.StorePgvector:
		s, err := openPgvector(ctx, &cfg.Database, embed)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

func openChromem(ctx context.Context, cfg *config.VectorStoreConfig, embed chromem.EmbeddingFunc) (*chromemdb.VectorDBManager, error) {
	if err := helper.CreateFolder(cfg.Path); err != nil {
		return nil, err
	}

	m, err := chromemdb.NewVectorDBManager(cfg.Path, cfg.Collection, cfg.InMemory, cfg.EncryptionKey, embed)
	if err != nil {
		return nil, err
	}

	// an in-memory db starts from the last encrypted export, if there is one
	if cfg.InMemory && cfg.EncryptionKey != "" {
		_, statErr := os.Stat(m.ExportFile())
		switch {
		case statErr == nil:
			if err := m.Import(ctx, cfg.Collection); err != nil {
				return nil, err
			}
		case !errors.Is(statErr, os.ErrNotExist):
			return nil, statErr
		}
	}

	if _, err := m.GetOrCreateCollection(cfg.Collection); err != nil {
		return nil, err
	}
	log.Info().
		Str("collection", cfg.Collection).
		Int("documents", m.Count()).
		Bool("in_memory", cfg.InMemory).
		Msg("Opened chromem collection")
	return m, nil
}

func openPgvector(ctx context.Context, cfg *config.DatabaseConfig, embed chromem.EmbeddingFunc) (*db.Store, error) {
	sqldb, err := db.ConnectDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info().Str("driver", cfg.Driver).Msg("Connected to pgvector database")
	return db.NewStore(db.NewDB(sqldb, cfg.Debug), embed), nil
}
