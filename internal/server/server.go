// Package server exposes the dashboard HTTP API: candle series with
// on-demand indicator overlays, plus backtest and optimizer runs.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kabuquant/kabuquant/internal/backtest"
	"github.com/kabuquant/kabuquant/internal/candle"
	"github.com/kabuquant/kabuquant/internal/config"
	"github.com/kabuquant/kabuquant/internal/indicator"
	"github.com/kabuquant/kabuquant/internal/logger"
	"github.com/kabuquant/kabuquant/internal/optimizer"
)

// Server is the dashboard API server.
type Server struct {
	config    *config.Config
	store     candle.Store
	registry  indicator.IndicatorRegistry
	engine    *backtest.Engine
	optimizer *optimizer.Optimizer
	log       *logger.Logger

	indicatorMu sync.Mutex
	http        *http.Server
}

// New wires the API server. The router is built eagerly so tests can
// exercise Handler without starting a listener.
func New(
	cfg *config.Config,
	store candle.Store,
	registry indicator.IndicatorRegistry,
	engine *backtest.Engine,
	opt *optimizer.Optimizer,
	log *logger.Logger,
) *Server {
	s := &Server{
		config:    cfg,
		store:     store,
		registry:  registry,
		engine:    engine,
		optimizer: opt,
		log:       log,
	}

	router := mux.NewRouter()
	router.Use(s.logRequests)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/candles", s.handleCandles).Methods(http.MethodGet)
	api.HandleFunc("/backtest", s.handleBacktest).Methods(http.MethodPost)
	api.HandleFunc("/optimize", s.handleOptimize).Methods(http.MethodPost)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the routing handler for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("dashboard api listening", zap.String("addr", s.http.Addr))

	err := s.http.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
