package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/philippgille/chromem-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"business-chatbot/internal/config"
	"business-chatbot/internal/models"
)

// Vector is a pgvector value. It is written and read in the '[1,2,3]' text form.
type Vector []float32

func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

func (v *Vector) Scan(src any) error {
	var s string
	switch t := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return fmt.Errorf("unsupported vector type %T", src)
	}

	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		*v = Vector{}
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(Vector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fmt.Errorf("parse vector element %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	*v = out
	return nil
}

type Document struct {
	bun.BaseModel  `bun:"table:documents,alias:d"`
	ID             int64  `bun:"id,pk,autoincrement"`
	Content        string `bun:"content,notnull"`
	Embedding      Vector `bun:"embedding,notnull"`
	SourceFilename string `bun:"source_filename"`
	PageNumber     int    `bun:"page_number"`
	ChunkID        int    `bun:"chunk_id"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens the Postgres connection with the configured driver.
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case "pq":
		return sql.Open("postgres", cfg.DSN)
	case "pgdriver", "":
		opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}

// InitDB creates the vector extension and the documents table.
func InitDB(ctx context.Context, db *bun.DB, vectorSize int) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	// the vector column width depends on the embedding model, so the DDL is
	// written out instead of derived from the model tags
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS documents (
	id BIGSERIAL PRIMARY KEY,
	content TEXT NOT NULL,
	embedding vector(?) NOT NULL,
	source_filename TEXT,
	page_number INTEGER,
	chunk_id INTEGER
)`, vectorSize)
	return err
}

func StoreDocuments(ctx context.Context, db *bun.DB, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&docs).Exec(ctx)
	return err
}

// SearchDocuments returns the content of the limit rows closest to
// queryEmbedding by cosine distance.
func SearchDocuments(ctx context.Context, db *bun.DB, queryEmbedding []float32, limit int) ([]string, error) {
	vec, err := Vector(queryEmbedding).Value()
	if err != nil {
		return nil, err
	}

	var contents []string
	err = db.NewSelect().
		Model((*Document)(nil)).
		Column("content").
		OrderExpr("embedding <=> ?::vector", vec).
		Limit(limit).
		Scan(ctx, &contents)
	return contents, err
}

func DropDocuments(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx)
	return err
}

// Store serves similarity queries from the documents table.
type Store struct {
	db    *bun.DB
	embed chromem.EmbeddingFunc
}

func NewStore(db *bun.DB, embed chromem.EmbeddingFunc) *Store {
	return &Store{db: db, embed: embed}
}

// Query embeds text and returns up to n similar documents, best match first.
func (s *Store) Query(ctx context.Context, text string, n int) ([]string, error) {
	if s.embed == nil {
		return nil, errors.New("embedding func is required")
	}
	vector, err := s.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return SearchDocuments(ctx, s.db, vector, n)
}

// Init creates the documents table for vectors of vectorSize dimensions.
func (s *Store) Init(ctx context.Context, vectorSize int) error {
	return InitDB(ctx, s.db, vectorSize)
}

// Reset drops the documents table. Call Init afterwards to recreate it.
func (s *Store) Reset(ctx context.Context) error {
	return DropDocuments(ctx, s.db)
}

// AddChunks inserts embedded chunks as document rows.
func (s *Store) AddChunks(ctx context.Context, chunks []models.ChunkEmbedding) error {
	docs := make([]Document, len(chunks))
	for i, c := range chunks {
		docs[i] = Document{
			Content:        c.Content,
			Embedding:      c.Embedding,
			SourceFilename: c.SourceFilename,
			PageNumber:     c.PageNumber,
			ChunkID:        c.ChunkID,
		}
	}
	return StoreDocuments(ctx, s.db, docs)
}

func (s *Store) Close() error {
	return s.db.Close()
}
