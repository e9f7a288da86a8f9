// Package app wires configuration into the extraction engine shared by the
// server and the CLI.
package app

import (
	"log/slog"

	"github.com/dgallion1/sylex/internal/config"
	"github.com/dgallion1/sylex/internal/extract"
	"github.com/dgallion1/sylex/internal/parser"
	"github.com/dgallion1/sylex/internal/pipeline"
	"github.com/dgallion1/sylex/internal/storage"
)

// Components are the long-lived collaborators built from a Config.
type Components struct {
	Storage *storage.Service
	LLM     *extract.Client
	Stats   *extract.LLMStats
	Engine  *pipeline.Engine
}

func Build(cfg config.Config, log *slog.Logger) *Components {
	stats := extract.NewLLMStats(cfg.LLMStatsWindow)
	llm := extract.NewClient(extract.Config{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		BaseURL:     cfg.OpenAIBaseURL,
		MaxTokens:   cfg.OpenAIMaxTokens,
		CallTimeout: cfg.LLMCallTimeout,
	}, stats)
	svc := storage.New(cfg.UploadBaseURL, cfg.MaxUploadBytes)

	engine := pipeline.NewEngine(svc, llm, pipeline.EngineConfig{
		ChunkLimit: cfg.ChunkCharLimit,
		Parser:     parser.Options{FallbackPdftotext: cfg.PDFFallbackPdftotext},
	}, log)

	if !llm.Available() {
		log.Warn("OPENAI_API_KEY not set; running pattern extraction only")
	}
	return &Components{Storage: svc, LLM: llm, Stats: stats, Engine: engine}
}
