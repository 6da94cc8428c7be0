package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/arnaubm/noise-trader/internal/config"
	"github.com/arnaubm/noise-trader/internal/logger"
	"github.com/arnaubm/noise-trader/internal/metrics"
	"github.com/arnaubm/noise-trader/internal/storage"
)

type Server struct {
	httpServer *http.Server
	repo       *storage.Repository
	metrics    *metrics.Manager
	config     *config.Config
	logger     *logger.Logger
}

func NewServer(repo *storage.Repository, m *metrics.Manager, cfg *config.Config, log *logger.Logger) *Server {
	s := &Server{
		repo:    repo,
		metrics: m,
		config:  cfg,
		logger:  log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/indicators", s.handleIndicators)
	mux.Handle("/metrics", m.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("web server starting", "port", s.config.Web.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
