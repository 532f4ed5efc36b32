// Package web provides the HTTP API of the report service.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/oesreport/internal/config"
	"github.com/JonMunkholm/oesreport/internal/core"
	"github.com/JonMunkholm/oesreport/internal/metrics"
	webmw "github.com/JonMunkholm/oesreport/internal/web/middleware"
)

// multipartMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

// Server is the HTTP server for report generation.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	requestLimiter *RateLimiter
	reportLimiter  *RateLimiter
	stopCleanup    context.CancelFunc
}

// NewServer creates a Server with all routes mounted.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.requestLimiter = NewRateLimiter(cfg.Rate.RequestsPerMinute, nil)
		s.reportLimiter = NewRateLimiter(cfg.Rate.ReportLimit, nil)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Compress(5, "application/json", "text/html", "text/plain"))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if len(s.cfg.Security.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Security.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Run-ID", "X-Report-Diagnostics", "Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	if s.requestLimiter != nil {
		s.router.Use(s.requestLimiter.Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/schema", s.handleSchema)
		r.Get("/formats", s.handleFormats)
		r.Get("/reports/history", s.handleHistory)

		// Report generation has its own, tighter budget.
		r.Group(func(r chi.Router) {
			if s.reportLimiter != nil {
				r.Use(s.reportLimiter.Middleware)
			}
			r.Post("/reports", s.handleReport)
			r.Post("/validate", s.handleValidate)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopCleanup = cancel
	for _, rl := range []*RateLimiter{s.requestLimiter, s.reportLimiter} {
		if rl != nil {
			go rl.StartCleanup(ctx)
		}
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopCleanup != nil {
		s.stopCleanup()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// HTML reports carry an inline stylesheet and no scripts.
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'")
			}

			next.ServeHTTP(w, r)
		})
	}
}
