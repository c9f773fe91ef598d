// Package http exposes the forecast service as a JSON API. Handlers parse
// and validate at the boundary, delegate to the service, and map sentinel
// errors to status codes.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"forecast/internal/cache"
	applog "forecast/internal/log"
	"forecast/internal/services"
)

// userHeader selects the forecast model a request operates on. Requests
// without it fall back to a shared default user.
const (
	userHeader  = "X-User-ID"
	defaultUser = "default"
)

type Server struct {
	service   *services.ForecastService
	logger    *applog.Logger
	gridCache *cache.LRU[*services.GridResult]
	httpSrv   *http.Server
}

type Config struct {
	Port      string
	CacheSize int
	CacheTTL  time.Duration
}

func NewServer(service *services.ForecastService, logger *applog.Logger, cfg Config) *Server {
	s := &Server{
		service:   service,
		logger:    logger.WithComponent(applog.ComponentHTTP),
		gridCache: cache.NewLRU[*services.GridResult](cfg.CacheSize, cfg.CacheTTL),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(applog.Middleware(s.logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/settings", s.handleGetSettings)
		r.Post("/settings", s.handleUpdateSettings)
		r.Get("/grid", s.handleGrid)
		r.Post("/cell/edit", s.handleEditCell)
		r.Post("/items/add", s.handleAddItem)
		r.Post("/items/delete", s.handleDeleteItem)
		r.Post("/items/recurrence", s.handleSetRecurrence)
		r.Post("/dates/apply", s.handleApplyDates)
	})

	s.httpSrv = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func userID(r *http.Request) string {
	if id := r.Header.Get(userHeader); id != "" {
		return id
	}
	return defaultUser
}

// invalidate drops the cached grid after any mutation.
func (s *Server) invalidate(userID string) {
	s.gridCache.Delete(userID)
}
