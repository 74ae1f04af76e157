package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/taskdeck/internal/api/middleware"
	"github.com/good-yellow-bee/taskdeck/internal/api/projects"
	"github.com/good-yellow-bee/taskdeck/internal/api/stats"
	"github.com/good-yellow-bee/taskdeck/internal/api/tasks"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Rate limiter for write endpoints
	writeLimiter := middleware.NewRateLimiter(s.config.RateLimitPerIP)
	limited := middleware.RateLimitByIP(writeLimiter)

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Metrics)

	// Unmatched routes answer in the same envelope as the handlers
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		JSONError(w, ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		JSONError(w, ErrMethodNotAllowed)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		projectHandler := projects.NewHandler(s.storage)
		taskHandler := tasks.NewHandler(s.storage)
		statsHandler := stats.NewHandler(s.storage)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.With(limited).Post("/", projectHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", projectHandler.GetByID)
				r.With(limited).Put("/", projectHandler.Update)
				r.With(limited).Delete("/", projectHandler.Delete)

				r.Get("/tasks", taskHandler.ListByProject)
				r.With(limited).Post("/tasks", taskHandler.CreateInProject)
				r.Get("/summary", statsHandler.ProjectSummary)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.List)
			r.With(limited).Post("/", taskHandler.Create)
			r.With(limited).Put("/complete_all", taskHandler.CompleteAll)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetByID)
				r.With(limited).Put("/", taskHandler.Update)
				r.With(limited).Delete("/", taskHandler.Delete)
			})
		})

		r.Get("/summary", statsHandler.GlobalSummary)
	})

	// Health endpoints (public, no rate limit)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/livez", s.healthHandler.Live)
	r.Get("/readyz", s.healthHandler.Ready)

	return r
}
