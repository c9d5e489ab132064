// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/coursemover/internal/api"
	"github.com/starford/coursemover/internal/mcpserver"
	"github.com/starford/coursemover/internal/session"
	"github.com/starford/coursemover/internal/sse"
	"github.com/starford/coursemover/internal/studio"
	"github.com/starford/coursemover/internal/studiostub"
	"github.com/starford/coursemover/internal/tui"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// studioClient returns the injected client or one built from the config.
func (a *application) studioClient() (session.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	c, err := studio.New(a.config.Studio.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("init studio client: %w", err)
	}
	return c, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// newHandler builds the HTTP surface: health checks plus the API and event
// stream under /api.
func newHandler(cfg *Config, sessions *session.Manager, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", health)
	r.Get("/health/ready", health)

	r.Mount("/api", api.NewRouter(sessions, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))
	return r
}

// serveHTTP runs srv until ctx is done or a shutdown signal arrives.
func serveHTTP(ctx context.Context, srv *http.Server, logger *slog.Logger, extra ...func(context.Context) error) error {
	g, gCtx := errgroup.WithContext(ctx)

	for _, fn := range extra {
		g.Go(func() error { return fn(gCtx) })
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// errShutdown stops the errgroup once the server has been shut down.
var errShutdown = errors.New("shutdown")

// Run starts the move picker service with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("studio", cfg.Studio.BaseURL),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	client, err := app.studioClient()
	if err != nil {
		return err
	}

	broker := sse.NewBroker()
	defer broker.Close()

	sessions := session.NewManager(ctx, client, sse.Publisher{B: broker}, logger)
	defer sessions.Shutdown()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHandler(cfg, sessions, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))
	if err := serveHTTP(ctx, httpServer, logger); err != nil {
		return err
	}
	logger.Info("Server stopped successfully")
	return nil
}

// BrowseParams names the item the terminal picker moves.
type BrowseParams struct {
	Source session.Params
	// LogFile receives the JSON log; empty discards it.
	LogFile string
}

// RunBrowse opens a move session and drives it from the terminal.
func RunBrowse(ctx context.Context, p BrowseParams, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if p.LogFile != "" {
		f, err := os.OpenFile(p.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, app.config.App.LogLevel)
	slog.SetDefault(logger)

	client, err := app.studioClient()
	if err != nil {
		return err
	}

	fwd := &tui.Forwarder{}
	sessions := session.NewManager(ctx, client, fwd, logger)
	defer sessions.Shutdown()

	s, err := sessions.Open(p.Source)
	if err != nil {
		return err
	}

	prog := tea.NewProgram(tui.New(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx))
	fwd.Attach(prog)
	go func() {
		if s.Wait(ctx) == nil {
			prog.Send(tui.LoadedMsg{Err: s.Err()})
		}
	}()
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal picker: %w", err)
	}
	if loadErr := s.Err(); loadErr != nil {
		return fmt.Errorf("load outline: %w", loadErr)
	}
	return nil
}

// RunMCP serves the move tools over stdio. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, app.config.App.LogLevel)
	slog.SetDefault(logger)

	client, err := app.studioClient()
	if err != nil {
		return err
	}
	sessions := session.NewManager(ctx, client, nil, logger)
	defer sessions.Shutdown()

	logger.Info("MCP server starting", slog.String("studio", app.config.Studio.BaseURL))
	return mcpserver.New(sessions).ServeStdio()
}

// RunStub serves the stub Studio over the configured fixture.
func RunStub(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config.Stub

	logger := newLogger(os.Stdout, app.config.App.LogLevel)
	slog.SetDefault(logger)

	fixture, err := studiostub.NewFixture(cfg.Fixture)
	if err != nil {
		return err
	}
	root, err := fixture.Load()
	if err != nil {
		return err
	}
	store := studiostub.NewStore(root)

	stubOpts := studiostub.Options{Token: cfg.Token, Logger: logger}
	if cfg.Persist {
		stubOpts.Fixture = fixture
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Get("/health/live", health)
	r.Mount("/", studiostub.NewRouter(store, stubOpts))

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Stub studio starting",
		slog.String("address", cfg.Address()),
		slog.String("fixture", fixture.Path()),
		slog.Bool("persist", cfg.Persist))

	return serveHTTP(ctx, srv, logger, func(ctx context.Context) error {
		return fixture.Watch(ctx, store, logger, nil)
	})
}
