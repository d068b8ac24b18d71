package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// Server is the development HTTP server.
type Server struct {
	cfg            *config.Config
	hub            *Hub
	recorder       metrics.Recorder
	metricsHandler http.Handler
	logger         *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRecorder reports live reload activity to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(s *Server) { s.recorder = rec }
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New returns a Server for cfg.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{cfg: cfg, recorder: metrics.NoopRecorder{}, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	s.hub = NewHub(s.recorder)
	return s
}

// Hub returns the live reload hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the routing handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	var files http.Handler = http.FileServer(http.Dir(s.cfg.OutputDir()))
	if s.cfg.Server.LiveReloadEnabled() {
		files = injectLiveReload(files)
		mux.Handle("/livereload", s.hub)
		mux.HandleFunc("/livereload.js", serveClientScript)
	}
	mux.Handle("/", files)
	mux.Handle("/node_modules/", http.StripPrefix("/node_modules/", http.FileServer(http.Dir(s.cfg.NodeModulesDir()))))
	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	}
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			slog.String("method", r.Method),
			logfields.Path(r.URL.Path),
			logfields.Duration(time.Since(start)))
	})
}

// Addr is the listen address for the configured port.
func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.cfg.Server.Port)
}

// Listen binds the configured port.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return nil, foundationerrors.NetworkError("failed to bind dev server").
			WithContext("addr", s.Addr()).
			WithCause(err).
			Build()
	}
	return ln, nil
}

// Run binds the configured port and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down within
// shutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	var watcher *Watcher
	if s.cfg.Server.LiveReloadEnabled() {
		watcher = NewWatcher(s.cfg.OutputDir(), s.cfg.Server.Debounce, func(paths []string) {
			s.hub.Broadcast(paths)
		})
		if err := watcher.Start(watchCtx); err != nil {
			_ = ln.Close()
			return foundationerrors.FileSystemError("failed to watch output").
				WithContext("path", s.cfg.OutputDir()).
				WithCause(err).
				Build()
		}
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// SSE connections are long-lived; no write timeout.
		IdleTimeout: 300 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("Dev server listening",
		logfields.Addr(ln.Addr().String()),
		logfields.Output(s.cfg.OutputDir()),
		slog.Bool("live_reload", s.cfg.Server.LiveReloadEnabled()))

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = foundationerrors.NetworkError("dev server stopped").WithCause(err).Build()
		}
	}

	s.logger.Info("Shutting down dev server")
	s.hub.Shutdown()
	stopWatch()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	if watcher != nil {
		<-watcher.Done()
	}
	return serveErr
}
