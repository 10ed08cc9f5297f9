package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"LLM_PROVIDER", "GOOGLE_API_KEY", "LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL",
	"LLM_TEMPERATURE", "LLM_MAX_TOKENS", "EMBEDDING_BASE_URL", "EMBEDDING_MODEL",
	"EMBEDDING_INTERVAL", "EMBEDDING_TIMEOUT", "GENERATION_TIMEOUT", "SEARCH_TIMEOUT",
	"QDRANT_URL", "QDRANT_COLLECTION", "QDRANT_VECTOR_SIZE", "RETRIEVAL_TOP_K",
	"REDIS_ADDR", "EMBEDDING_CACHE_TTL", "DB_PATH", "API_PORT", "LOG_LEVEL", "LOG_FORMAT",
}

// isolate clears every config variable and moves into an empty directory so no .env file is picked up.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "data", "test.db"))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*testing.T, *Config)
	}{
		{
			name: "defaults with gemini key",
			setupEnv: func(t *testing.T) {
				t.Setenv("GOOGLE_API_KEY", "test-key")
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.LLMProvider != ProviderGemini {
					t.Errorf("LLMProvider = %q, want %q", cfg.LLMProvider, ProviderGemini)
				}
				if cfg.LLMModelName != "gemini-2.0-flash" {
					t.Errorf("LLMModelName = %q", cfg.LLMModelName)
				}
				if cfg.EmbeddingModelName != "text-embedding-004" {
					t.Errorf("EmbeddingModelName = %q", cfg.EmbeddingModelName)
				}
				if cfg.LLMTemperature != 0.7 {
					t.Errorf("LLMTemperature = %v, want 0.7", cfg.LLMTemperature)
				}
				if cfg.LLMMaxTokens != 1024 {
					t.Errorf("LLMMaxTokens = %d, want 1024", cfg.LLMMaxTokens)
				}
				if cfg.EmbeddingInterval != 4*time.Second {
					t.Errorf("EmbeddingInterval = %v, want 4s", cfg.EmbeddingInterval)
				}
				if cfg.QdrantCollection != "clios-index" || cfg.QdrantVectorSize != 768 {
					t.Errorf("Qdrant = %q/%d", cfg.QdrantCollection, cfg.QdrantVectorSize)
				}
				if cfg.RetrievalTopK != 5 {
					t.Errorf("RetrievalTopK = %d, want 5", cfg.RetrievalTopK)
				}
				if cfg.RedisAddr != "" {
					t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
				}
				if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "text" {
					t.Errorf("logging = %v/%q", cfg.LogLevel, cfg.LogFormat)
				}
			},
		},
		{
			name:    "gemini without key",
			wantErr: true,
		},
		{
			name: "openai provider needs no google key",
			setupEnv: func(t *testing.T) {
				t.Setenv("LLM_PROVIDER", "OpenAI")
				t.Setenv("LLM_BASE_URL", "http://llm:8080/v1")
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.LLMProvider != ProviderOpenAI {
					t.Errorf("LLMProvider = %q", cfg.LLMProvider)
				}
				if cfg.EmbeddingBaseURL != "http://llm:8080/v1" {
					t.Errorf("EmbeddingBaseURL = %q, want LLM base URL fallback", cfg.EmbeddingBaseURL)
				}
			},
		},
		{
			name: "unknown provider",
			setupEnv: func(t *testing.T) {
				t.Setenv("LLM_PROVIDER", "bedrock")
			},
			wantErr: true,
		},
		{
			name: "invalid vector size",
			setupEnv: func(t *testing.T) {
				t.Setenv("GOOGLE_API_KEY", "k")
				t.Setenv("QDRANT_VECTOR_SIZE", "invalid")
			},
			wantErr: true,
		},
		{
			name: "zero top k",
			setupEnv: func(t *testing.T) {
				t.Setenv("GOOGLE_API_KEY", "k")
				t.Setenv("RETRIEVAL_TOP_K", "0")
			},
			wantErr: true,
		},
		{
			name: "temperature out of range",
			setupEnv: func(t *testing.T) {
				t.Setenv("GOOGLE_API_KEY", "k")
				t.Setenv("LLM_TEMPERATURE", "3.5")
			},
			wantErr: true,
		},
		{
			name: "invalid duration",
			setupEnv: func(t *testing.T) {
				t.Setenv("GOOGLE_API_KEY", "k")
				t.Setenv("EMBEDDING_INTERVAL", "four seconds")
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			setupEnv: func(t *testing.T) {
				t.Setenv("GOOGLE_API_KEY", "k")
				t.Setenv("LOG_FORMAT", "xml")
			},
			wantErr: true,
		},
		{
			name: "gemini interval below minimum",
			setupEnv: func(t *testing.T) {
				t.Setenv("GOOGLE_API_KEY", "k")
				t.Setenv("EMBEDDING_INTERVAL", "0s")
			},
			wantErr: true,
		},
		{
			name: "openai allows unpaced embeddings",
			setupEnv: func(t *testing.T) {
				t.Setenv("LLM_PROVIDER", "openai")
				t.Setenv("EMBEDDING_INTERVAL", "0s")
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.EmbeddingInterval != 0 {
					t.Errorf("EmbeddingInterval = %v, want 0", cfg.EmbeddingInterval)
				}
			},
		},
		{
			name: "custom values",
			setupEnv: func(t *testing.T) {
				t.Setenv("GOOGLE_API_KEY", "k")
				t.Setenv("EMBEDDING_INTERVAL", "5s")
				t.Setenv("REDIS_ADDR", "localhost:6379")
				t.Setenv("LOG_LEVEL", "debug")
				t.Setenv("LOG_FORMAT", "JSON")
				t.Setenv("RETRIEVAL_TOP_K", "8")
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.EmbeddingInterval != 5*time.Second {
					t.Errorf("EmbeddingInterval = %v", cfg.EmbeddingInterval)
				}
				if cfg.RedisAddr != "localhost:6379" {
					t.Errorf("RedisAddr = %q", cfg.RedisAddr)
				}
				if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "json" {
					t.Errorf("logging = %v/%q", cfg.LogLevel, cfg.LogFormat)
				}
				if cfg.RetrievalTopK != 8 {
					t.Errorf("RetrievalTopK = %d", cfg.RetrievalTopK)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			if tt.setupEnv != nil {
				tt.setupEnv(t)
			}

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if tt.checkConfig != nil {
				tt.checkConfig(t, cfg)
			}
		})
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_API_KEY", "k")
	dbPath := filepath.Join(t.TempDir(), "nested", "db.db")
	t.Setenv("DB_PATH", dbPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Errorf("Load() should create data directory: %v", err)
	}
	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue string
		want         string
	}{
		{name: "env var set", value: "set-value", defaultValue: "default", want: "set-value"},
		{name: "empty env var uses default", value: "", defaultValue: "default", want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_VAR", tt.value)
			if got := getEnv("TEST_ENV_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}
