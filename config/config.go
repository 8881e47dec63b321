// Package config loads process configuration from the environment,
// optionally seeded from a local .env file via github.com/joho/godotenv.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/openrag/ragcore/internal/domain"
)

// Config is the process-wide configuration. Session-level fields mirror
// domain.SessionConfig and serve as the fallback when a caller's
// POST /session body omits them.
type Config struct {
	Port string

	ProviderBaseURL    string
	ProviderAPIKey     string
	EmbeddingModel     string
	GenerationModel    string
	TokenEncodingModel string

	EmbeddingCacheMinutes    int
	EmbeddingCacheMaxBytes   int64
	EmbeddingRequestTimeout  time.Duration
	EmbeddingMaxRetries      int
	GenerationRequestTimeout time.Duration

	MaxActiveSessions int

	LogLevel string
	LogJSON  bool

	Session domain.SessionConfig
}

// Load reads environment variables into a Config, applying documented
// defaults for anything unset. Load calls godotenv.Load() first so a local
// .env file (if present) populates os.Environ before reading.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, relying on process environment")
	}

	cfg := Config{
		Port:                     getEnv("PORT", "8080"),
		ProviderBaseURL:          getEnv("PROVIDER_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		ProviderAPIKey:           getEnv("PROVIDER_API_KEY", ""),
		EmbeddingModel:           getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		GenerationModel:          getEnv("GENERATION_MODEL", "gemini-2.5-flash"),
		TokenEncodingModel:       getEnv("TOKEN_ENCODING_MODEL", "cl100k_base"),
		EmbeddingCacheMinutes:    getEnvInt("EMBEDDING_CACHE_MINUTES", 30),
		EmbeddingCacheMaxBytes:   getEnvInt64("EMBEDDING_CACHE_MAX_BYTES", 64<<20),
		EmbeddingRequestTimeout:  time.Duration(getEnvInt("EMBEDDING_REQUEST_TIMEOUT_S", 30)) * time.Second,
		EmbeddingMaxRetries:      getEnvInt("EMBEDDING_MAX_RETRIES", 3),
		GenerationRequestTimeout: time.Duration(getEnvInt("GENERATION_REQUEST_TIMEOUT_S", 60)) * time.Second,
		MaxActiveSessions:        getEnvInt("MAX_ACTIVE_SESSIONS", 1000),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		LogJSON:                  getEnvBool("LOG_JSON", false),
		Session:                  domain.DefaultSessionConfig(),
	}

	cfg.Session.SessionTTL = time.Duration(getEnvInt("SESSION_TTL_MINUTES", 15)) * time.Minute
	cfg.Session.MaxDocuments = getEnvInt("MAX_DOCUMENTS", cfg.Session.MaxDocuments)
	cfg.Session.MaxFileSizeBytes = getEnvInt("MAX_FILE_SIZE_BYTES", cfg.Session.MaxFileSizeBytes)
	cfg.Session.ChunkSize = getEnvInt("CHUNK_SIZE", cfg.Session.ChunkSize)
	cfg.Session.ChunkOverlap = getEnvInt("CHUNK_OVERLAP", cfg.Session.ChunkOverlap)
	cfg.Session.TopK = getEnvInt("TOP_K", cfg.Session.TopK)
	cfg.Session.MaxConcurrentEmbeddings = getEnvInt("MAX_CONCURRENT_EMBEDDINGS", cfg.Session.MaxConcurrentEmbeddings)

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
