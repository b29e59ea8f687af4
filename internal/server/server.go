// Package server implements the HTML file server: a documentation page, the
// fixed-size file downloads, file inventory and status endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"

	"github.com/wesleyorama2/htmlbench/internal/config"
)

const readHeaderTimeout = 10 * time.Second

type Server struct {
	cfg     config.ServerConfig
	fs      afero.Fs
	log     *slog.Logger
	metrics *metrics
	usage   template.HTML
	handler http.Handler

	now func() time.Time
}

func New(cfg config.ServerConfig, fs afero.Fs, log *slog.Logger) (*Server, error) {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = config.Default().Server.ShutdownTimeout
	}

	usage, err := renderUsage(exampleURL(cfg.Listen))
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		fs:      fs,
		log:     log,
		metrics: newMetrics(),
		usage:   usage,
		now:     time.Now,
	}
	s.handler = s.routes()

	return s, nil
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)

	r.HandleFunc("/", s.homeHandler()).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/html/{size}", s.htmlHandler()).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/info", s.infoHandler()).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.statusHandler()).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)

	return s.instrument(r, s.recoverer(r))
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Prepare creates the storage directory when it is absent.
func (s *Server) Prepare() error {
	ok, err := afero.DirExists(s.fs, s.cfg.HTMLDir)
	if err != nil {
		return fmt.Errorf("cannot check %s: %w", s.cfg.HTMLDir, err)
	}
	if ok {
		return nil
	}

	if err := s.fs.MkdirAll(s.cfg.HTMLDir, 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", s.cfg.HTMLDir, err)
	}
	s.log.Info("Created folder", slog.String("dir", s.cfg.HTMLDir))

	return nil
}

// Run prepares storage, listens on the configured address and serves until
// ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Prepare(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", s.cfg.Listen, err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
// within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelError),
	}

	s.log.Info("HTML File Server starting",
		slog.String("addr", ln.Addr().String()),
		slog.String("files_folder", s.cfg.HTMLDir),
		slog.Any("endpoints", append(append([]string{}, Endpoints...), "/metrics")))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("could not serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down", slog.Duration("timeout", s.cfg.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func exampleURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://localhost:5000"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
