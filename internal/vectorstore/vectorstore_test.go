package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"business-chatbot/internal/config"
	"business-chatbot/internal/models"
)

func fixedEmbed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func chromemConfig(t *testing.T, inMemory bool, key string) *config.Config {
	return &config.Config{VectorStore: config.VectorStoreConfig{
		Type:          config.StoreChromem,
		Path:          t.TempDir(),
		Collection:    "business-faqs",
		InMemory:      inMemory,
		EncryptionKey: key,
	}}
}

func TestOpen_ChromemPersistent(t *testing.T) {
	cfg := chromemConfig(t, false, "")
	ctx := context.Background()

	s, err := Open(ctx, cfg, fixedEmbed)
	require.NoError(t, err)
	require.NoError(t, s.AddChunks(ctx, []models.ChunkEmbedding{
		{Content: "We open at 9.", Embedding: []float32{1, 0}, SourceFilename: "faq.txt", PageNumber: 1, ChunkID: 1},
	}))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, cfg, fixedEmbed)
	require.NoError(t, err)
	docs, err := reopened.Query(ctx, "hours", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"We open at 9."}, docs)
}

func TestOpen_ChromemInMemoryExportImport(t *testing.T) {
	cfg := chromemConfig(t, true, "0123456789abcdef0123456789abcdef")
	ctx := context.Background()

	s, err := Open(ctx, cfg, fixedEmbed)
	require.NoError(t, err)
	require.NoError(t, s.AddChunks(ctx, []models.ChunkEmbedding{
		{Content: "Closed on Sundays.", Embedding: []float32{1, 0}, SourceFilename: "faq.txt", PageNumber: 1, ChunkID: 1},
	}))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, cfg, fixedEmbed)
	require.NoError(t, err)
	docs, err := reopened.Query(ctx, "sunday", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Closed on Sundays."}, docs)
}

func TestOpen_Unknown(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{VectorStore: config.VectorStoreConfig{Type: "faiss"}}, fixedEmbed)
	assert.ErrorContains(t, err, "unknown vector store")
}
