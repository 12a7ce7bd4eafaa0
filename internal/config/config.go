package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderOllama     = "ollama"

	StoreChromem  = "chromem"
	StorePgvector = "pgvector"

	DefaultOpenRouterURL   = "https://openrouter.ai/api/v1/chat/completions"
	DefaultOpenRouterModel = "mistralai/mistral-7b-instruct"
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel     = "gpt-3.5-turbo"
	DefaultOllamaBaseURL   = "http://localhost:11434"
	DefaultOllamaModel     = "mistral"
	DefaultEmbeddingModel  = "nomic-embed-text"
	DefaultCollection      = "business-faqs"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Generator   LLMConfig         `yaml:"generator"`
	EmbedLLM    LLMConfig         `yaml:"embed_llm"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Database    DatabaseConfig    `yaml:"database"`
	RAG         RAGConfig         `yaml:"rag"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	// StrictStatus replaces the historical 200/500 convention with 400/502/504.
	StrictStatus bool `yaml:"strict_status"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// LLMConfig describes one model endpoint. It is used for both the text
// generator and the embedder.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
	Referer  string `yaml:"referer"`
}

type VectorStoreConfig struct {
	Type          string `yaml:"type"`
	Path          string `yaml:"path"`
	Collection    string `yaml:"collection"`
	InMemory      bool   `yaml:"in_memory"`
	EncryptionKey string `yaml:"encryption_key"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // pgdriver or pq
	DSN        string `yaml:"dsn"`
	Password   string `yaml:"password"`
	VectorSize int    `yaml:"vector_size"`
	Debug      bool   `yaml:"debug"`
}

type RAGConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	// ChunkOverlap may be 0; a negative value means unset.
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// LoadConfig loads the answer service config and validates all of it.
func LoadConfig(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the YAML file at path, then applies .env and process
// environment overrides and defaults. A missing file yields the defaults.
// Nothing is validated; callers pick the checks they need.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Config{RAG: RAGConfig{ChunkOverlap: -1}}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	fileProvider := normalizeProvider(cfg.Generator.Provider)
	setFromEnv(&cfg.Generator.Provider, "LLM_PROVIDER")
	cfg.Generator.Provider = normalizeProvider(cfg.Generator.Provider)

	// endpoint settings in the file belong to the file's provider
	if orDefault(cfg.Generator.Provider) != orDefault(fileProvider) {
		cfg.Generator = LLMConfig{Provider: cfg.Generator.Provider}
	}

	// provider specific variables are only read for the selected provider
	switch cfg.Generator.Provider {
	case ProviderOpenRouter, "":
		setFromEnv(&cfg.Generator.Key, "OPENROUTER_API_KEY")
		setFromEnv(&cfg.Generator.Model, "OPENROUTER_MODEL")
		setFromEnv(&cfg.Generator.Referer, "OPENROUTER_REFERER")
	case ProviderOpenAI:
		setFromEnv(&cfg.Generator.Key, "OPENAI_API_KEY")
		setFromEnv(&cfg.Generator.Model, "OPENAI_MODEL")
		setFromEnv(&cfg.Generator.BaseURL, "OPENAI_BASE_URL")
	case ProviderOllama:
		setFromEnv(&cfg.Generator.BaseURL, "OLLAMA_BASE_URL")
		setFromEnv(&cfg.Generator.Model, "OLLAMA_MODEL")
	}

	setFromEnv(&cfg.Server.Port, "PORT")
	if v, ok := os.LookupEnv("STRICT_STATUS"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Server.StrictStatus = b
		}
	}
	setFromEnv(&cfg.Log.Level, "LOG_LEVEL")
	setFromEnv(&cfg.VectorStore.Type, "VECTOR_STORE")
	setFromEnv(&cfg.Database.DSN, "DATABASE_URL")
}

func normalizeProvider(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}

func orDefault(provider string) string {
	if provider == "" {
		return ProviderOpenRouter
	}
	return provider
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8000"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "debug"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	g := &cfg.Generator
	if g.Provider == "" {
		g.Provider = ProviderOpenRouter
	}
	switch g.Provider {
	case ProviderOpenRouter:
		if g.BaseURL == "" {
			g.BaseURL = DefaultOpenRouterURL
		}
		if g.Model == "" {
			g.Model = DefaultOpenRouterModel
		}
	case ProviderOpenAI:
		if g.BaseURL == "" {
			g.BaseURL = DefaultOpenAIBaseURL
		}
		if g.Model == "" {
			g.Model = DefaultOpenAIModel
		}
	case ProviderOllama:
		if g.BaseURL == "" {
			g.BaseURL = DefaultOllamaBaseURL
		}
		if g.Model == "" {
			g.Model = DefaultOllamaModel
		}
	}

	e := &cfg.EmbedLLM
	if e.Provider == "" {
		e.Provider = ProviderOllama
	}
	if e.BaseURL == "" {
		if e.Provider == ProviderOllama {
			e.BaseURL = DefaultOllamaBaseURL
		} else {
			e.BaseURL = DefaultOpenAIBaseURL
		}
	}
	if e.Model == "" {
		e.Model = DefaultEmbeddingModel
	}

	vs := &cfg.VectorStore
	if vs.Type == "" {
		vs.Type = StoreChromem
	}
	if vs.Path == "" {
		vs.Path = "./chromemdb"
	}
	if vs.Collection == "" {
		vs.Collection = DefaultCollection
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgdriver"
	}
	if cfg.Database.VectorSize == 0 {
		cfg.Database.VectorSize = 768
	}

	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.ChunkOverlap < 0 {
		cfg.RAG.ChunkOverlap = 200
	}
}

// Validate enforces the answer service startup contract: hosted providers
// need a key, a local server needs a usable base URL, and the document store
// must be usable.
func (c *Config) Validate() error {
	if err := c.ValidateGenerator(); err != nil {
		return err
	}
	return c.ValidateStore()
}

// ValidateGenerator checks the text generation endpoint.
func (c *Config) ValidateGenerator() error {
	switch c.Generator.Provider {
	case ProviderOpenRouter:
		if c.Generator.Key == "" {
			return errors.New("missing OPENROUTER_API_KEY environment variable")
		}
	case ProviderOpenAI:
		if c.Generator.Key == "" {
			return errors.New("missing OPENAI_API_KEY environment variable")
		}
	case ProviderOllama:
		if _, err := url.ParseRequestURI(c.Generator.BaseURL); err != nil {
			return fmt.Errorf("invalid ollama base url %q: %w", c.Generator.BaseURL, err)
		}
	default:
		return fmt.Errorf("unknown generator provider: %s", c.Generator.Provider)
	}
	return nil
}

// ValidateStore checks the embedder and the vector store, the only sections
// ingestion uses.
func (c *Config) ValidateStore() error {
	// any provider other than ollama is spoken to as openai compatible
	if _, err := url.ParseRequestURI(c.EmbedLLM.BaseURL); err != nil {
		return fmt.Errorf("invalid embedder base url %q: %w", c.EmbedLLM.BaseURL, err)
	}

	switch c.VectorStore.Type {
	case StoreChromem:
	case StorePgvector:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the pgvector store")
		}
	default:
		return fmt.Errorf("unknown vector store: %s", c.VectorStore.Type)
	}

	switch c.Database.Driver {
	case "pgdriver", "pq":
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}
	return nil
}

// Addr returns the listen address of the answer service.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
