// Package server assembles the activities service: configuration, credential
// store, session store, catalog, API handler, and the HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mergington/activities/pkg/api"
	"github.com/mergington/activities/pkg/catalog"
	"github.com/mergington/activities/pkg/config"
	"github.com/mergington/activities/pkg/credentials"
	"github.com/mergington/activities/pkg/health"
	"github.com/mergington/activities/pkg/session"
)

// Version is set at build time.
var Version = "dev"

const (
	// shutdownTimeout bounds graceful shutdown once the context is cancelled.
	shutdownTimeout = 10 * time.Second

	// sessionSweepInterval is how often expired sessions are evicted.
	sessionSweepInterval = 10 * time.Minute

	readHeaderTimeout = 5 * time.Second
)

// Server is the assembled activities service.
type Server struct {
	cfg      config.Config
	httpSrv  *http.Server
	sessions *session.MemoryStore
	checker  *health.Checker
}

// New builds a Server from configuration. Any failure (unreadable teachers
// file, bad seed file) is returned and expected to abort startup.
func New(cfg config.Config) (*Server, error) {
	creds, err := credentials.Load(cfg.Auth.TeachersFile)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	slog.Info("server: credentials loaded",
		"path", cfg.Auth.TeachersFile, "teachers", creds.Len())

	seed := catalog.DefaultSeed()
	if cfg.Catalog.SeedFile != "" {
		seed, err = catalog.LoadSeed(cfg.Catalog.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("loading catalog seed: %w", err)
		}
		slog.Info("server: catalog seed loaded",
			"path", cfg.Catalog.SeedFile, "activities", len(seed))
	}

	var catOpts []catalog.Option
	if cfg.Catalog.EnforceCapacity {
		catOpts = append(catOpts, catalog.WithCapacityEnforcement())
	}

	sessions := session.NewMemoryStore(cfg.Auth.SessionTTL.Std())

	handler := api.NewHandler(api.Config{
		Credentials:   creds,
		Sessions:      sessions,
		Catalog:       catalog.New(seed, catOpts...),
		SessionTTL:    cfg.Auth.SessionTTL.Std(),
		CookieHashKey: []byte(cfg.Auth.CookieHashKey),
	})

	checker := health.NewChecker()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	checker.RegisterRoutes(mux)
	registerStaticRoutes(mux, cfg.Server.StaticDir)

	return &Server{
		cfg: cfg,
		httpSrv: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           withRequestID(withAccessLog(mux)),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		sessions: sessions,
		checker:  checker,
	}, nil
}

// registerStaticRoutes serves the static frontend when a directory is
// configured. The apex then redirects to the frontend entry point.
func registerStaticRoutes(mux *http.ServeMux, dir string) {
	if dir == "" {
		return
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/static/index.html", http.StatusTemporaryRedirect)
	})
}

// Run starts the server and blocks until the context is cancelled or the
// listener fails. Shutdown is graceful within shutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	s.sessions.StartCleanupRoutine(sessionSweepInterval)
	defer func() { _ = s.sessions.Close() }()

	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpSrv.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.Serve(ln)
	}()

	s.checker.SetReady()
	slog.Info("server: listening", "address", ln.Addr().String())

	select {
	case <-ctx.Done():
		s.checker.SetDraining()
		slog.Info("server: shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	}
}

// Handler exposes the fully assembled HTTP handler. Intended for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Close releases resources without serving. Safe after a failed Run.
func (s *Server) Close() error {
	return s.sessions.Close()
}
