package config

import (
	"fmt"
	"time"

	"github.com/Rithanya654/Generic-RAG/internal/util"
)

// Provider types understood by the AI failover chain.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// ProviderConfig describes one generative backend in the failover order.
// BaseURL may point at any OpenAI-compatible endpoint (e.g. Groq) when the
// type is "openai".
type ProviderConfig struct {
	Type    string
	BaseURL string
	APIKey  string
	Model   string
}

// Config carries every runtime setting for the pipeline. It is constructed
// once per process and passed explicitly into each stage; no package keeps
// hidden global state.
type Config struct {
	// Graph store
	DatabaseURL string

	// Generative backends, in failover order. Each provider is attempted
	// at most once per logical call.
	Providers []ProviderConfig

	Temperature         float64
	MaxCompletionTokens int
	RequestTimeout      time.Duration

	// Chunking
	Encoder      string
	ChunkSize    int
	ChunkOverlap int
	MaxChunkSize int

	// Pipeline
	ParallelAIRequests int
	CheckpointDir      string

	// Queue
	RabbitMQUser     string
	RabbitMQPassword string
	RabbitMQHost     string
	RabbitMQPort     string

	// HTTP server
	ServerPort string
	// APISecret enables HS256 bearer auth on the query API when non-empty.
	APISecret string
}

// Load builds a Config from the environment (after godotenv). It validates
// the chunking limits up front: a chunk size above the hard ceiling or an
// overlap at or above the chunk size is a configuration error, not bad data.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: util.GetEnv("GRAPH_DB_URL"),

		Temperature:         0.0,
		MaxCompletionTokens: int(util.GetEnvNumeric("MAX_COMPLETION_TOKENS", 900)),
		RequestTimeout:      time.Duration(util.GetEnvNumeric("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,

		Encoder:      util.GetEnvString("TOKEN_ENCODER", "cl100k_base"),
		ChunkSize:    int(util.GetEnvNumeric("CHUNK_SIZE", 600)),
		ChunkOverlap: int(util.GetEnvNumeric("CHUNK_OVERLAP", 100)),
		MaxChunkSize: int(util.GetEnvNumeric("MAX_CHUNK_SIZE", 800)),

		ParallelAIRequests: int(util.GetEnvNumeric("AI_PARALLEL_REQ", 1)),
		CheckpointDir:      util.GetEnvString("CHECKPOINT_DIR", "outputs/checkpoints"),

		RabbitMQUser:     util.GetEnv("RABBITMQ_USER"),
		RabbitMQPassword: util.GetEnv("RABBITMQ_PASSWORD"),
		RabbitMQHost:     util.GetEnv("RABBITMQ_HOST"),
		RabbitMQPort:     util.GetEnvString("RABBITMQ_PORT", "5672"),

		ServerPort: util.GetEnvString("PORT", "8080"),
		APISecret:  util.GetEnv("API_SECRET"),
	}

	if cfg.ChunkSize > cfg.MaxChunkSize {
		return nil, fmt.Errorf("CHUNK_SIZE (%d) exceeds MAX_CHUNK_SIZE (%d)", cfg.ChunkSize, cfg.MaxChunkSize)
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}

	cfg.Providers = loadProviders()
	return cfg, nil
}

// loadProviders assembles the ordered failover list: the primary
// OpenAI(-compatible) endpoint first, then an optional second compatible
// endpoint, then a local Ollama host. Providers without credentials are
// left out of the chain entirely.
func loadProviders() []ProviderConfig {
	var providers []ProviderConfig

	if key := util.GetEnv("OPENAI_API_KEY"); key != "" {
		providers = append(providers, ProviderConfig{
			Type:    ProviderOpenAI,
			BaseURL: util.GetEnv("OPENAI_CHAT_URL"),
			APIKey:  key,
			Model:   util.GetEnvString("OPENAI_LLM_MODEL", "gpt-4o-mini"),
		})
	}

	if key := util.GetEnv("FALLBACK_API_KEY"); key != "" {
		providers = append(providers, ProviderConfig{
			Type:    ProviderOpenAI,
			BaseURL: util.GetEnvString("FALLBACK_CHAT_URL", "https://api.groq.com/openai/v1"),
			APIKey:  key,
			Model:   util.GetEnvString("FALLBACK_LLM_MODEL", "llama-3.1-70b-versatile"),
		})
	}

	if host := util.GetEnv("OLLAMA_HOST"); host != "" {
		providers = append(providers, ProviderConfig{
			Type:    ProviderOllama,
			BaseURL: host,
			Model:   util.GetEnvString("OLLAMA_LLM_MODEL", "llama3.1"),
		})
	}

	return providers
}
