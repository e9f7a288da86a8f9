package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "OPENAI_MAX_TOKENS",
		"LLM_CALL_TIMEOUT", "LLM_STATS_WINDOW", "CHUNK_CHAR_LIMIT", "WORKER_COUNT",
		"MAX_QUEUE_SIZE", "MAX_UPLOAD_BYTES", "UPLOAD_BASE_URL", "JOB_TTL",
		"PDF_FALLBACK_PDFTOTEXT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" || cfg.OpenAIMaxTokens != 4000 {
		t.Errorf("model = %q, max tokens = %d", cfg.OpenAIModel, cfg.OpenAIMaxTokens)
	}
	if cfg.LLMCallTimeout != 120*time.Second || cfg.JobTTL != time.Hour {
		t.Errorf("timeouts = %v, %v", cfg.LLMCallTimeout, cfg.JobTTL)
	}
	if cfg.ChunkCharLimit != 60000 || cfg.WorkerCount != 2 || cfg.MaxQueueSize != 100 {
		t.Errorf("unexpected sizes %+v", cfg)
	}
	if cfg.MaxUploadBytes != 25<<20 {
		t.Errorf("max upload = %d", cfg.MaxUploadBytes)
	}
	if !cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback on by default")
	}
	if cfg.LLMEnabled() {
		t.Error("expected LLM disabled without a key")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("LLM_CALL_TIMEOUT", "30s")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")
	t.Setenv("UPLOAD_BASE_URL", "s3://bucket/uploads")
	t.Setenv("DATABASE_PATH", "/var/lib/sylex/results.db")

	cfg := Load()
	if !cfg.LLMEnabled() || cfg.WorkerCount != 8 || cfg.LLMCallTimeout != 30*time.Second {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected fallback disabled")
	}
	if cfg.DatabasePath != "/var/lib/sylex/results.db" {
		t.Errorf("database path = %q", cfg.DatabasePath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("CHUNK_CHAR_LIMIT", "lots")
	t.Setenv("JOB_TTL", "soon")

	cfg := Load()
	if cfg.WorkerCount != 2 || cfg.ChunkCharLimit != 60000 || cfg.JobTTL != time.Hour {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_EmptyDatabasePathDisablesPersistence(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_PATH", "")
	if got := Load().DatabasePath; got != "" {
		t.Errorf("database path = %q", got)
	}
}

func TestValidate_Errors(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	cfg.Port = "http"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-numeric port")
	}

	cfg = Load()
	cfg.UploadBaseURL = "ftp://host/uploads"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unsupported upload base")
	}
}
