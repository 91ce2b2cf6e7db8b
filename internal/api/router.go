package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.withRequestID, s.accessLog, s.recoverPanics, s.cors, limitBody)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Route("/detections", func(r chi.Router) {
			r.Get("/", s.handleListDetections)
			r.Get("/{mac}", s.handleGetDetection)
		})

		r.Route("/aliases", func(r chi.Router) {
			r.Get("/", s.handleListAliases)
			r.Put("/{mac}", s.handleSetAlias)
			r.Delete("/{mac}", s.handleDeleteAlias)
		})

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

// wsPath returns the WebSocket route under /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return defaultWSPath
	}
	return s.wsCfg.Path
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
