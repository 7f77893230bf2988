// Package devserver serves the destination directory over HTTP and pushes reload
// events to connected browsers.
package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/zerr"
)

const shutdownTimeout = 5 * time.Second

var _ ports.DevServer = (*Server)(nil)

// Server implements ports.DevServer.
type Server struct {
	logger  ports.Logger
	metrics ports.Metrics
	hub     *Hub

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// NewServer creates a Server. Nothing is bound until Listen.
func NewServer(logger ports.Logger, metrics ports.Metrics) *Server {
	return &Server{
		logger:  logger,
		metrics: metrics,
		hub:     NewHub(logger, metrics),
	}
}

// Listen binds the listener for cfg and prepares the routes. It returns the bound address.
func (s *Server) Listen(cfg domain.DevServer) (string, error) {
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrDevServerStartFailed.Error()), "addr", cfg.Addr())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = ln
	// No write timeout: event streams are long-lived.
	s.server = &http.Server{
		Handler:           s.Handler(cfg.Root),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       5 * time.Minute,
	}
	return ln.Addr().String(), nil
}

// Handler returns the routes serving root.
func (s *Server) Handler(root string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(EventsPath, s.hub)
	mux.HandleFunc(ScriptPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write([]byte(clientScript))
	})
	mux.Handle(MetricsPath, s.metrics.Handler())
	mux.Handle("/", noCache(injectScript(http.FileServer(http.Dir(root)))))
	return mux
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// Serve handles requests until ctx is cancelled, then disconnects live-reload
// clients and shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	srv, ln := s.server, s.listener
	s.mu.Unlock()
	if srv == nil {
		return zerr.Wrap(errors.New("listen was not called"), domain.ErrDevServerStartFailed.Error())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.hub.Shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return zerr.Wrap(err, "dev server stopped")
	case <-ctx.Done():
	}

	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return zerr.Wrap(err, "dev server shutdown failed")
	}
	return nil
}

// Reload tells connected browsers that the build with the given hash is ready.
func (s *Server) Reload(hash string) {
	s.hub.Broadcast(hash)
}
