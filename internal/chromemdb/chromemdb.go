package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"business-chatbot/internal/helper"
	"business-chatbot/internal/models"
)

// VectorDBManager encapsulates the chromem-go database operations
type VectorDBManager struct {
	db            *chromem.DB
	collection    *chromem.Collection
	embed         chromem.EmbeddingFunc
	dbPath        string
	compress      bool
	encryptionKey string
	filePath      string
	inMemory      bool
}

const (
	compress = false
)

// NewVectorDBManager initializes a new vector database manager. embed is used
// to turn query texts (and documents added without a vector) into embeddings.
func NewVectorDBManager(dbPath, collectionName string, inMemory bool, encryptionKey string, embed chromem.EmbeddingFunc) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	return &VectorDBManager{
		db:            db,
		embed:         embed,
		dbPath:        dbPath,
		compress:      compress,
		encryptionKey: encryptionKey,
		filePath:      dbPath + "/" + collectionName + ".chromem",
		inMemory:      inMemory,
	}, nil
}

// GetOrCreateCollection opens the named collection and makes it the target of
// every other call.
func (m *VectorDBManager) GetOrCreateCollection(collectionName string) (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(collectionName, nil, m.embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	m.collection = c
	return c, nil
}

// CreateDocs adds or replaces documents in the collection.
func (m *VectorDBManager) CreateDocs(ctx context.Context, documents []chromem.Document) error {
	if m.collection == nil {
		return errors.New("collection is required")
	}
	if err := m.collection.AddDocuments(ctx, documents, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// AddChunks stores embedded chunks, replacing earlier versions of the same
// file, page and chunk.
func (m *VectorDBManager) AddChunks(ctx context.Context, chunks []models.ChunkEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, chromem.Document{
			ID:      helper.DocumentID(c.SourceFilename, c.PageNumber, c.ChunkID),
			Content: c.Content,
			Metadata: map[string]string{
				"source": c.SourceFilename,
				"page":   strconv.Itoa(c.PageNumber),
				"chunk":  strconv.Itoa(c.ChunkID),
			},
			Embedding: c.Embedding,
		})
	}
	return m.CreateDocs(ctx, docs)
}

// Close exports an in-memory collection when an encryption key is set, so
// the next process can import it. Persistent databases are already on disk.
func (m *VectorDBManager) Close() error {
	if !m.inMemory || m.encryptionKey == "" || m.collection == nil {
		return nil
	}
	return m.Export(context.Background())
}

// Count returns the number of documents in the collection.
func (m *VectorDBManager) Count() int {
	if m.collection == nil {
		return 0
	}
	return m.collection.Count()
}

// Query returns the content of up to n documents most similar to text, best
// match first. chromem rejects n larger than the collection, so n is clamped.
func (m *VectorDBManager) Query(ctx context.Context, text string, n int) ([]string, error) {
	count := m.Count()
	if count == 0 || n <= 0 {
		return nil, nil
	}

	results, err := m.SearchWithQueryOptions(ctx, chromem.QueryOptions{
		QueryText: text,
		NResults:  min(n, count),
	})
	if err != nil {
		return nil, err
	}

	docs := make([]string, 0, len(results))
	for _, r := range results {
		docs = append(docs, r.Content)
	}
	return docs, nil
}

// SearchWithQueryOptions performs a similarity search
func (m *VectorDBManager) SearchWithQueryOptions(ctx context.Context, opts chromem.QueryOptions) ([]chromem.Result, error) {
	if m.collection == nil {
		return nil, errors.New("collection is required")
	}
	// exit if query or embedding is not provided
	if opts.QueryText == "" && opts.QueryEmbedding == nil {
		return nil, errors.New("either query or embedding must be provided")
	}

	results, err := m.collection.QueryWithOptions(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	return results, nil
}

// DeleteCollection drops the current collection.
func (m *VectorDBManager) DeleteCollection() error {
	if m.collection == nil {
		return errors.New("collection is required")
	}
	if err := m.db.DeleteCollection(m.collection.Name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	m.collection = nil
	return nil
}

// Reset drops the current collection and recreates it empty.
func (m *VectorDBManager) Reset(ctx context.Context) error {
	if m.collection == nil {
		return errors.New("collection is required")
	}
	name := m.collection.Name
	if err := m.DeleteCollection(); err != nil {
		return err
	}
	_, err := m.GetOrCreateCollection(name)
	return err
}

// Export writes the current collection to an encrypted file.
func (m *VectorDBManager) Export(ctx context.Context) error {
	if m.encryptionKey == "" {
		return errors.New("encryption key is required")
	}
	if m.collection == nil {
		return errors.New("collection is required")
	}
	if m.dbPath == "" {
		return errors.New("db path is required")
	}

	log.Debug().
		Str("collection", m.collection.Name).
		Str("file", m.filePath).
		Bool("compress", m.compress).
		Msg("Exporting collection")

	if err := m.db.ExportToFile(m.filePath, m.compress, m.encryptionKey, m.collection.Name); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Import loads collectionName from the encrypted export file. Call it before
// GetOrCreateCollection so the imported collection picks up the embedding func.
func (m *VectorDBManager) Import(ctx context.Context, collectionName string) error {
	if m.encryptionKey == "" {
		return errors.New("encryption key is required")
	}
	if err := m.db.ImportFromFile(m.filePath, m.encryptionKey, collectionName); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	return nil
}

// ExportFile is the path used by Export and Import.
func (m *VectorDBManager) ExportFile() string {
	return m.filePath
}
