package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/specassist/internal/answer"
	"github.com/dgallion1/specassist/internal/config"
	"github.com/dgallion1/specassist/internal/index"
	"github.com/dgallion1/specassist/internal/llm"
	"github.com/dgallion1/specassist/internal/pipeline"
)

// Deps are the collaborators behind the HTTP API.
type Deps struct {
	Handle       *index.Handle
	Searcher     answer.Searcher
	Answers      *answer.Service
	Orchestrator *pipeline.Orchestrator // nil disables uploads
	Stats        *llm.CallStats
	EmbedModel   string
	LLMModel     string
}

// Server is the HTTP API server for specassist.
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/ask", s.handleAsk)
		r.Get("/api/search", s.handleSearch)

		r.Get("/api/index", s.handleIndexInfo)
		r.Post("/api/index", s.handleIndexUpload)
		r.Get("/api/index/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/sections/{sectionID}/chunks", s.handleSectionChunks)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Handle.Current()
	body := map[string]any{
		"status":       "ok",
		"index_loaded": snap != nil,
	}
	if snap != nil {
		body["build_id"] = snap.Manifest.BuildID
		body["rows"] = snap.Len()
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
