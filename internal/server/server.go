package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/okeefe/circleback/internal/engine"
	"github.com/okeefe/circleback/internal/store"
)

// Server is the circleback HTTP API server.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server. The engine may be nil when the advisory provider
// is not configured; engine routes then return 503.
func New(db *store.DB, eng *engine.Engine, version string) *Server {
	s := &Server{
		db:      db,
		engine:  eng,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/contacts", s.handleListContacts)
		r.Post("/contacts", s.handleCreateContact)
		r.Get("/contacts/{contactID}", s.handleGetContact)
		r.Put("/contacts/{contactID}", s.handleUpdateContact)
		r.Delete("/contacts/{contactID}", s.handleDeleteContact)

		r.Post("/contacts/{contactID}/interactions", s.handleLogInteraction)
		r.Get("/contacts/{contactID}/interactions", s.handleGetInteractions)

		// Reminder lifecycle actions
		r.Post("/contacts/{contactID}/accept", s.handleAccept)
		r.Post("/contacts/{contactID}/snooze", s.handleSnooze)
		r.Post("/contacts/{contactID}/dismiss", s.handleDismiss)
		r.Post("/contacts/{contactID}/complete", s.handleComplete)

		r.Get("/engine/status", s.handleEngineStatus)
		r.Post("/engine/check", s.handleForceCheck)
		r.Get("/engine/runs", s.handleSweepRuns)

		r.Get("/policy", s.handleGetPolicy)
		r.Put("/policy", s.handleSavePolicy)

		r.Get("/rules", s.handleListRules)
		r.Post("/rules", s.handleCreateRule)
		r.Delete("/rules/{ruleID}", s.handleDeleteRule)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}
