// Package server exposes the recommendation service over JSON HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/meditrek/internal/model"
	"github.com/sells-group/meditrek/internal/store"
)

// Recommender is the inbound contract served over HTTP.
type Recommender interface {
	GetMedicationRecommendations(ctx context.Context, profile model.PatientProfile) ([]model.MedicationRecommendation, error)
	GetSymptomManagementLists(ctx context.Context, symptoms []string) (model.ManagementLists, error)
	GetCombinedRecommendations(ctx context.Context, profile model.PatientProfile) (model.CombinedRecommendation, error)
}

// Config tunes the HTTP layer.
type Config struct {
	CORSOrigins    []string
	RatePerClient  float64
	BurstPerClient int64
}

// Server routes requests to the recommendation service and history store.
type Server struct {
	router  chi.Router
	svc     Recommender
	store   store.Store
	limiter *RateLimiter
}

// New builds the router. A nil store disables the consultation endpoints.
func New(svc Recommender, st store.Store, cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		svc:     svc,
		store:   st,
		limiter: NewRateLimiter(cfg.RatePerClient, cfg.BurstPerClient),
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(accessLog)
	s.router.Use(middleware.Recoverer)
	s.router.Use(instrument)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware)
		r.Use(limitBody)
		r.Post("/recommend", s.handleRecommend)
		r.Post("/medications", s.handleMedications)
		r.Post("/management", s.handleManagement)
		r.Get("/consultations", s.handleListConsultations)
		r.Get("/consultations/{id}", s.handleGetConsultation)
	})

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Limiter returns the per-client rate limiter, or nil when disabled.
func (s *Server) Limiter() *RateLimiter {
	return s.limiter
}

// HTTPServer wraps the handler with the timeouts used in production.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
