// Package api exposes the aggregated restaurant views over a read-only HTTP
// API. All writes happen through the CLI pipeline; the server never mutates
// the store.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/vanhalal/halal-cli/internal/store"
)

// Server serves aggregated restaurant summaries composed from the normalized
// rows on every request.
type Server struct {
	store   store.Store
	modelID string
	logger  *zap.Logger
	tz      *time.Location
	now     func() time.Time
}

// NewServer builds a Server that aggregates tag sets produced by modelID.
// Open-now derivation uses the Vancouver clock.
func NewServer(s store.Store, modelID string, logger *zap.Logger) *Server {
	tz, err := time.LoadLocation("America/Vancouver")
	if err != nil {
		tz = time.UTC
	}
	return &Server{
		store:   s,
		modelID: modelID,
		logger:  logger,
		tz:      tz,
		now:     time.Now,
	}
}

// Router mounts the read-only routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/restaurants", s.handleListRestaurants)
	r.Get("/restaurants/{slug}", s.handleGetRestaurant)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
