// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/content"
	"github.com/starford/ansuz/internal/devto"
	"github.com/starford/ansuz/internal/feed"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/markdown"
	"github.com/starford/ansuz/internal/siteservice"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	mode := cfg.App.Mode()

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_dir", cfg.Content.Dir),
		slog.String("mode", string(mode)),
		slog.String("log_level", cfg.App.LogLevel.String()))

	sources, err := content.DefaultSources(cfg.Content.Dir)
	if err != nil {
		return fmt.Errorf("init sources: %w", err)
	}

	// Build the initial index.
	idx, err := index.Build(ctx, mode, sources)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	handle := index.NewHandle(idx)

	// Optional dev.to article lookup. Failure is non-fatal: posts just
	// lose their syndication links.
	var articles map[string]devto.Article
	if cfg.DevTo.APIKey != "" || app.devto != nil {
		client := app.devto
		if client == nil {
			client = devto.NewClient(cfg.DevTo.APIKey)
		}
		fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		articles, err = client.ArticleIndex(fetchCtx)
		cancel()
		if err != nil {
			logger.Warn("devto article lookup failed", slog.String("error", err.Error()))
			articles = nil
		}
	}

	renderer := markdown.New(cfg.Content.HighlightStyle)
	svc := siteservice.NewService(handle, renderer, articles)
	feeds := feed.NewGenerator(handle, renderer, feed.Site{
		Host:        cfg.Site.Host,
		Title:       cfg.Site.Title,
		Description: cfg.Site.Description,
		Author:      cfg.Site.Author,
		Copyright:   cfg.Site.Copyright,
	}, cfg.Feed.MaxItems)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/", api.NewRouter(svc, feeds, mode))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Development mode rebuilds the index on content changes.
	if mode == content.ModeDevelopment {
		g.Go(func() error {
			return index.Watch(gCtx, handle, mode, cfg.Content.Dir, sources, logger)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
