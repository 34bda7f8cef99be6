package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/collate/internal/api"
	"github.com/jackzampolin/collate/internal/config"
	"github.com/jackzampolin/collate/internal/home"
	"github.com/jackzampolin/collate/internal/ingest"
	"github.com/jackzampolin/collate/internal/report"
	"github.com/jackzampolin/collate/internal/server/endpoints"
	"github.com/jackzampolin/collate/internal/store"
	"github.com/jackzampolin/collate/internal/svcctx"
)

// Server is the main collate HTTP server.
// It manages the staging store lifecycle - opening it on server start
// and closing it on server shutdown - and optionally runs the inbox
// watcher alongside the HTTP listener.
type Server struct {
	httpServer *http.Server
	homeDir    *home.Dir
	store      *store.Store
	watcher    *ingest.Watcher
	configMgr  *config.Manager
	logger     *slog.Logger

	watch       bool
	watchCancel context.CancelFunc

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the collate home directory holding the inbox, store, and reports
	Home *home.Dir
	// Watch enables the inbox watcher so dropped documents are staged automatically
	Watch bool
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		return nil, errors.New("home directory is required")
	}

	s := &Server{
		homeDir:   cfg.Home,
		configMgr: cfg.ConfigManager,
		watch:     cfg.Watch,
		logger:    cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{SwaggerSpecPath: endpoints.GetSwaggerSpecPath()}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server and opens the staging store.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.homeDir.EnsureExists(); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to create home directory: %w", err)
	}

	s.logger.Info("opening staging store", "path", s.homeDir.DBPath())
	st, err := store.Open(s.homeDir.DBPath())
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to open staging store: %w", err)
	}
	s.store = st

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		Store:     s.store,
		Home:      s.homeDir,
		ConfigMgr: s.configMgr,
		Logger:    s.logger,
	}

	ingestCfg := config.DefaultConfig().Ingest
	if s.configMgr != nil {
		ingestCfg = s.configMgr.Get().Ingest
	}

	// Set up the inbox watcher before the HTTP listener so documents
	// dropped during startup are not missed by the initial sweep.
	errCh := make(chan error, 2)
	if s.watch {
		s.watcher = ingest.NewWatcher(s.homeDir, s.store, ingestCfg, s.logger)
		if ingestCfg.AutoValidate {
			s.watcher.OnIngest(func(ctx context.Context, bookID string) error {
				_, err := report.Run(ctx, s.store, s.homeDir, bookID, s.logger)
				return err
			})
		}

		watchCtx, cancel := context.WithCancel(ctx)
		s.watchCancel = cancel
		go func() {
			if err := s.watcher.Run(watchCtx); err != nil {
				errCh <- fmt.Errorf("inbox watcher error: %w", err)
			}
		}()
	}

	// Start HTTP server in goroutine
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = s.shutdown()
		return err
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server, the watcher,
// and the staging store.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	if s.watchCancel != nil {
		s.watchCancel()
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("staging store close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Store returns the staging store.
// Returns nil if the server hasn't started yet.
func (s *Server) Store() *store.Store {
	return s.store
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable if the staging store isn't ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
