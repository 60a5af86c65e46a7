// Package devserver is an in-memory implementation of the sdbx backend API.
//
// It serves the same endpoints as the production backend, including
// presigned-style object URLs under /objects/{id}, single-access
// reservations, vault download counting, PIN sessions with lockout and
// per-IP rate limiting. Nothing is persisted. It backs the SDK tests and
// the `sdbx devserver` command.
package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8787"

	sweepInterval   = time.Minute
	shutdownTimeout = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	// Addr is the listen address for ListenAndServe.
	Addr string
	// PublicURL is the base of object URLs handed to clients. Defaults to
	// the scheme and Host of each request.
	PublicURL string
	// RPS and Burst configure the per-IP rate limiter. RPS <= 0 disables it.
	RPS   float64
	Burst int
	// Logger receives request logs. Defaults to a no-op logger.
	Logger *zap.Logger
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Server is the in-memory backend.
type Server struct {
	addr      string
	publicURL string
	store     *store
	limiter   *ipLimiter
	logger    *zap.SugaredLogger
	now       func() time.Time
	router    chi.Router
}

// New returns a Server ready to serve.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		addr:      cfg.Addr,
		publicURL: cfg.PublicURL,
		store:     newStore(cfg.Now),
		logger:    cfg.Logger.Sugar(),
		now:       cfg.Now,
	}
	if cfg.RPS > 0 {
		s.limiter = newIPLimiter(cfg.RPS, max(cfg.Burst, 1), cfg.Now)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(s.withRequestID)
	r.Use(s.withLogging)
	if s.limiter != nil {
		r.Use(s.withRateLimit)
	}

	r.Post("/upload/init", s.uploadInit)
	r.Get("/files/{id}/metadata", s.metadata)
	r.Post("/files/{id}/download", s.download)
	r.Post("/files/{id}/confirm", s.confirm)
	r.Post("/files/{id}/report", s.report)

	r.Post("/pin/upload", s.pinUpload)
	r.Post("/pin/initiate", s.pinInitiate)
	r.Post("/pin/verify", s.pinVerify)

	r.Put("/objects/{id}", s.putObject)
	r.Get("/objects/{id}", s.getObject)

	return r
}

// Handler returns the HTTP handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. Expired objects are swept
// in the background.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Infow("dev server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := s.store.sweep(); n > 0 {
					s.logger.Debugw("expired objects removed", "count", n)
				}
				if s.limiter != nil {
					s.limiter.cleanup(time.Hour)
				}
			}
		}
	})
	return g.Wait()
}
