package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/sylex/internal/storage"
)

type Config struct {
	Port string

	// Generative extraction. An empty key runs pattern extraction only.
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	OpenAIMaxTokens int
	LLMCallTimeout  time.Duration
	LLMStatsWindow  time.Duration

	// Chunking
	ChunkCharLimit int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Uploads
	MaxUploadBytes int64
	UploadBaseURL  string

	// Job state
	JobTTL time.Duration

	// Persistence; empty disables it.
	DatabasePath string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		OpenAIMaxTokens: envInt("OPENAI_MAX_TOKENS", 4000),
		LLMCallTimeout:  envDuration("LLM_CALL_TIMEOUT", 120*time.Second),
		LLMStatsWindow:  envDuration("LLM_STATS_WINDOW", time.Hour),

		ChunkCharLimit: envInt("CHUNK_CHAR_LIMIT", 60000),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 26214400), // 25MB
		UploadBaseURL:  envOr("UPLOAD_BASE_URL", "file:///tmp/sylex/uploads"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		DatabasePath: envOr("DATABASE_PATH", "sylex.db"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}
	// An explicitly empty DATABASE_PATH turns persistence off.
	if v, ok := os.LookupEnv("DATABASE_PATH"); ok && v == "" {
		cfg.DatabasePath = ""
	}

	if cfg.OpenAIMaxTokens <= 0 {
		cfg.OpenAIMaxTokens = 4000
	}
	if cfg.LLMCallTimeout <= 0 {
		cfg.LLMCallTimeout = 120 * time.Second
	}
	if cfg.LLMStatsWindow <= 0 {
		cfg.LLMStatsWindow = time.Hour
	}
	if cfg.ChunkCharLimit <= 0 {
		cfg.ChunkCharLimit = 60000
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 26214400
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks values that have no safe fallback.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if _, err := storage.ParseReference(c.UploadBaseURL + "/probe"); err != nil {
		return fmt.Errorf("UPLOAD_BASE_URL: %w", err)
	}
	return nil
}

// LLMEnabled reports whether generative extraction is configured.
func (c Config) LLMEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
