// Package api exposes the dashboard over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"betdesk/internal/dashboard"
	"betdesk/internal/metrics"
	"betdesk/internal/tween"
)

// Options configure the HTTP surface.
type Options struct {
	AllowedOrigins []string
	FrameInterval  time.Duration
	ProfitPlaces   int32
}

// Server holds the handler dependencies.
type Server struct {
	dash     *dashboard.Service
	sessions *dashboard.Sessions
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	opts     Options
}

// NewServer wires the handlers. m may be nil, which disables /metrics.
func NewServer(dash *dashboard.Service, sessions *dashboard.Sessions, m *metrics.Metrics, opts Options, logger zerolog.Logger) *Server {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = tween.DefaultFrameInterval
	}
	return &Server{
		dash:     dash,
		sessions: sessions,
		metrics:  m,
		logger:   logger.With().Str("component", "api").Logger(),
		opts:     opts,
	}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger, s.metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/opportunities", s.handleOpportunities)
		r.Post("/refresh", s.handleRefresh)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.handleCloseSession)

			r.Get("/triage", s.handleListTriage)
			r.Post("/triage", s.handleAddTriage)
			r.Put("/triage/{entityID}", s.handleSetCategory)
			r.Delete("/triage/{entityID}", s.handleRemoveTriage)

			r.Get("/carousel", s.handleCarousel)
			r.Post("/carousel/left", s.handleCarouselLeft)
			r.Post("/carousel/right", s.handleCarouselRight)

			r.Get("/balance", s.handleBalance)
			r.Get("/balance/ws", s.handleBalanceStream)
		})
	})

	return r
}
