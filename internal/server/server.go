// Package server serves the built presentation and the development reload
// endpoints. Static serving of the artifact and the reload-check poll
// endpoint are the whole HTTP surface, plus an optional websocket push
// channel for clients that prefer it over polling.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/autoreveal/autoreveal/internal/config"
	"github.com/autoreveal/autoreveal/internal/logging"
	"github.com/autoreveal/autoreveal/internal/version"
)

// Server serves the build root as static files and answers reload polls.
type Server struct {
	config      *config.Config
	reload      *ReloadSignal
	hub         *Hub
	logger      logging.Logger
	httpServer  *http.Server
	serverMutex sync.RWMutex

	shutdownOnce sync.Once
	shutdownErr  error
}

// reloadResponse is the body of a reload-check poll.
type reloadResponse struct {
	Reload bool `json:"reload"`
}

// New creates a server. The reload signal is shared with the watch loop: the
// watcher raises it, the reload-check handler consumes it.
func New(cfg *config.Config, reload *ReloadSignal, logger logging.Logger) *Server {
	s := &Server{
		config: cfg,
		reload: reload,
		logger: logger.WithComponent("server"),
	}
	if cfg.Development.PushReload {
		s.hub = NewHub(s.logger)
	}
	return s
}

// Handler builds the HTTP surface: static files at the root, the reload
// poll endpoint, health, and the optional websocket channel.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/reload-check", s.handleReloadCheck)
	mux.HandleFunc("/health", s.handleHealth)
	if s.hub != nil {
		mux.HandleFunc("/ws", s.handleWebSocket)
	}
	mux.Handle("/", http.FileServer(http.Dir(s.config.Server.Root)))
	return s.withRequestLogging(mux)
}

// Start runs the HTTP server until it fails or is shut down.
func (s *Server) Start(ctx context.Context) error {
	if s.hub != nil {
		go s.hub.Run(ctx)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	httpServer := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "serving presentation", "addr", addr, "root", s.config.Server.Root)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server gracefully. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.serverMutex.RLock()
		httpServer := s.httpServer
		s.serverMutex.RUnlock()

		if httpServer != nil {
			s.shutdownErr = httpServer.Shutdown(ctx)
		}
	})
	return s.shutdownErr
}

// NotifyReload raises the reload signal and, when the push channel is
// enabled, broadcasts to connected websocket clients. Called by the watch
// loop after each successful rebuild.
func (s *Server) NotifyReload(ctx context.Context) {
	s.reload.Raise()
	if s.hub != nil {
		s.hub.Broadcast(ctx, UpdateMessage{Type: "reload", Timestamp: time.Now()})
	}
	s.logger.Info(ctx, "reload signal sent")
}

// handleReloadCheck reports and clears the reload signal. The response
// carries a permissive CORS header and deliberately no cache-control
// directive; the injected client script polls this endpoint once a second.
func (s *Server) handleReloadCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if err := json.NewEncoder(w).Encode(reloadResponse{Reload: s.reload.Consume()}); err != nil {
		s.logger.Error(r.Context(), err, "writing reload-check response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}

// withRequestLogging logs each request at debug level.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
