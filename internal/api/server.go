package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/sylex/internal/config"
	"github.com/dgallion1/sylex/internal/extract"
	"github.com/dgallion1/sylex/internal/pipeline"
	"github.com/dgallion1/sylex/internal/storage"
	"github.com/dgallion1/sylex/internal/store"
)

// Uploader stores an uploaded document and returns its reference.
type Uploader interface {
	Put(ctx context.Context, name string, data []byte) (storage.Reference, error)
}

// Deps are the collaborators behind the HTTP API.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Uploads      Uploader
	Results      *store.SQLite // nil when persistence is disabled
	Stats        *extract.LLMStats
	Model        string
}

// Server is the HTTP API server for sylex.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/parse", s.handleParse)
		r.Post("/parse/sync", s.handleParseSync)

		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{jobID}", s.handleJobStatus)
		r.Delete("/jobs/{jobID}", s.handleCancelJob)

		r.Get("/syllabi", s.handleListSyllabi)
		r.Get("/syllabi/{docID}", s.handleGetSyllabus)
		r.Delete("/syllabi/{docID}", s.handleDeleteSyllabus)
		r.Get("/syllabi/{docID}/entries", s.handleEntries)
		r.Get("/syllabi/{docID}/calendar.ics", s.handleCalendar)

		r.Get("/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"llm":         s.cfg.LLMEnabled(),
		"persistence": s.deps.Results != nil,
		"queue_depth": s.deps.Orchestrator.QueueDepth(),
	})
}
