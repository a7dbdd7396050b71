package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/nerrad567/tickpilot/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsHandler())
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		// WebSocket auth is by ticket, validated in the handler.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.With(s.require(auth.PermFeatureRead)).Get("/throttles", s.handleListThrottles)

			r.Route("/features", func(r chi.Router) {
				r.With(s.require(auth.PermFeatureRead)).Get("/", s.handleListFeatures)

				r.Route("/{key}", func(r chi.Router) {
					r.With(s.require(auth.PermFeatureRead)).Get("/", s.handleGetFeature)
					r.With(s.require(auth.PermFeatureOperate)).Post("/enable", s.handleEnableFeature)
					r.With(s.require(auth.PermFeatureOperate)).Post("/disable", s.handleDisableFeature)
					r.With(s.require(auth.PermFeatureRead)).Get("/settings", s.handleGetSettings)
					r.With(s.require(auth.PermFeatureConfigure)).Patch("/settings", s.handleUpdateSettings)
				})
			})
		})
	})

	return r
}

// corsHandler allows the configured origins. An empty list allows all
// origins, which suits a loopback-only listener.
func (s *Server) corsHandler() func(http.Handler) http.Handler {
	origins := s.cfg.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         86400,
	})
}

// healthCheckTimeout bounds each dependency check on /health.
const healthCheckTimeout = 2 * time.Second

// handleHealth reports engine progress and the state of each dependency.
// Any failing dependency turns the status to "degraded" with a 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	checks := make(map[string]string, len(s.checks))
	for name, c := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := c.HealthCheck(ctx)
		cancel()
		if err != nil {
			checks[name] = err.Error()
			status = "degraded"
			continue
		}
		checks[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":         status,
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"ticks":          s.engine.Ticks(),
		"last_tick_ms":   float64(s.engine.LastTickDuration().Microseconds()) / 1000,
		"ws_clients":     s.hub.ClientCount(),
		"checks":         checks,
	})
}

// handleMetrics serves the Prometheus registry when one is configured.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "metrics are not enabled")
		return
	}
	s.metrics.ServeHTTP(w, r)
}
