package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported values for LLM_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// MinGeminiEmbeddingInterval is the smallest EMBEDDING_INTERVAL accepted for
// the Gemini provider, whose free tier rejects faster request rates.
const MinGeminiEmbeddingInterval = time.Second

// Config holds all configuration for the application.
type Config struct {
	LLMProvider    string
	GoogleAPIKey   string
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModelName   string
	LLMTemperature float32
	LLMMaxTokens   int

	EmbeddingBaseURL   string
	EmbeddingModelName string
	// EmbeddingInterval is the minimum spacing between embedding requests,
	// shared by every caller in the process.
	EmbeddingInterval time.Duration
	EmbeddingTimeout  time.Duration
	GenerationTimeout time.Duration
	SearchTimeout     time.Duration

	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int
	RetrievalTopK    int

	// RedisAddr enables the query embedding cache when non-empty.
	RedisAddr         string
	EmbeddingCacheTTL time.Duration

	DBPath    string
	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	llmBaseURL := getEnv("LLM_BASE_URL", "http://localhost:8080/v1")

	cfg := &Config{
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GoogleAPIKey:       getEnv("GOOGLE_API_KEY", ""),
		LLMBaseURL:         llmBaseURL,
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		LLMModelName:       getEnv("LLM_MODEL", "gemini-2.0-flash"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", llmBaseURL),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "clios-index"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		DBPath:             getEnv("DB_PATH", "./data/clio-assistant.db"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	switch cfg.LLMProvider {
	case ProviderGemini:
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is required when LLM_PROVIDER is %q", ProviderGemini)
		}
	case ProviderOpenAI:
	default:
		return nil, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, cfg.LLMProvider)
	}

	temperature, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.7"), 32)
	if err != nil {
		return nil, fmt.Errorf("LLM_TEMPERATURE must be a valid number: %w", err)
	}
	if temperature < 0 || temperature > 2 {
		return nil, fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2")
	}
	cfg.LLMTemperature = float32(temperature)

	if cfg.LLMMaxTokens, err = positiveInt("LLM_MAX_TOKENS", "1024"); err != nil {
		return nil, err
	}
	// Note: this must match the output size of the embedding model
	// (768 for text-embedding-004). Changing it requires recreating the collection.
	if cfg.QdrantVectorSize, err = positiveInt("QDRANT_VECTOR_SIZE", "768"); err != nil {
		return nil, err
	}
	if cfg.RetrievalTopK, err = positiveInt("RETRIEVAL_TOP_K", "5"); err != nil {
		return nil, err
	}

	if cfg.EmbeddingInterval, err = duration("EMBEDDING_INTERVAL", "4s"); err != nil {
		return nil, err
	}
	if cfg.LLMProvider == ProviderGemini && cfg.EmbeddingInterval < MinGeminiEmbeddingInterval {
		return nil, fmt.Errorf("EMBEDDING_INTERVAL must be at least %s when LLM_PROVIDER is %q, got %s",
			MinGeminiEmbeddingInterval, ProviderGemini, cfg.EmbeddingInterval)
	}
	if cfg.EmbeddingTimeout, err = duration("EMBEDDING_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.GenerationTimeout, err = duration("GENERATION_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.SearchTimeout, err = duration("SEARCH_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.EmbeddingCacheTTL, err = duration("EMBEDDING_CACHE_TTL", "24h"); err != nil {
		return nil, err
	}

	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func positiveInt(key, defaultValue string) (int, error) {
	v, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return v, nil
}

func duration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	return level, nil
}
