package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/sylex/internal/api"
	"github.com/dgallion1/sylex/internal/app"
	"github.com/dgallion1/sylex/internal/config"
	"github.com/dgallion1/sylex/internal/pipeline"
	"github.com/dgallion1/sylex/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := app.Build(cfg, log)

	// Persistence is optional.
	var results *store.SQLite
	var sink pipeline.ResultSink
	if cfg.DatabasePath != "" {
		db, err := store.Open(cfg.DatabasePath)
		if err != nil {
			log.Error("open database", "path", cfg.DatabasePath, "error", err)
			os.Exit(1)
		}
		results, sink = db, db
	}

	orch := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		Workers:   cfg.WorkerCount,
		QueueSize: cfg.MaxQueueSize,
		JobTTL:    cfg.JobTTL,
	}, c.Engine, sink, log)
	orch.Start(ctx)

	srv := api.NewServer(api.Deps{
		Orchestrator: orch,
		Uploads:      c.Storage,
		Results:      results,
		Stats:        c.Stats,
		Model:        c.LLM.Model(),
	}, log, cfg)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv,
		ReadTimeout: 30 * time.Second,
		// Synchronous parses make one model call per chunk.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if results != nil {
			results.Close()
		}
	}()

	log.Info("starting sylex",
		"port", cfg.Port,
		"model", c.LLM.Model(),
		"llm", cfg.LLMEnabled(),
		"database", cfg.DatabasePath,
		"workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
