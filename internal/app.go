// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/cache"
	"github.com/starford/ansuz/internal/client"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/session"
	"github.com/starford/ansuz/internal/view"
)

// App holds the wired application components.
type App struct {
	Config  *Config
	Logger  *slog.Logger
	Session *session.Session
	Client  *client.Client
	Cache   *cache.DB
	View    *view.View
}

// New builds the application from the given options.
func New(opts ...Option) (*App, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger on stderr; stdout belongs to
	// command output and the MCP stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("base_url", cfg.Remote.BaseURL),
		slog.String("cache_path", cfg.Cache.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	sess, err := session.New(cfg.Auth.Token, cfg.Auth.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("init session: %w", err)
	}

	var clientOpts []client.Option
	if t := cfg.Remote.Timeout(); t > 0 {
		clientOpts = append(clientOpts, client.WithTimeout(t))
	}
	if app.httpClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(app.httpClient))
	}
	c := client.New(cfg.Remote.BaseURL, sess, clientOpts...)

	viewOpts := []view.Option{
		view.WithLogger(logger),
		view.WithListLimits(cfg.Defaults.BookLimit, cfg.Defaults.NoteLimit),
	}

	var snap *cache.DB
	if cfg.Cache.Path != "" {
		snap, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("init snapshot cache: %w", err)
		}
		viewOpts = append(viewOpts, view.WithSnapshot(snap))
	}

	v := view.New(c, viewOpts...)
	if snap != nil {
		if err := v.RestoreSnapshot(); err != nil {
			logger.Warn("snapshot restore failed", slog.String("error", err.Error()))
		}
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Session: sess,
		Client:  c,
		Cache:   snap,
		View:    v,
	}, nil
}

// Close releases held resources.
func (a *App) Close() error {
	if a.Cache != nil {
		return a.Cache.Close()
	}
	return nil
}

// ServeMCP runs the MCP stdio server, with the token-file watcher
// alongside, until the context is cancelled, a shutdown signal arrives, or
// stdin closes.
func (a *App) ServeMCP(ctx context.Context) error {
	srv := mcpserver.New(a.Client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Session.Watch(gctx, a.Logger)
	})

	g.Go(func() error {
		a.Logger.Info("MCP server starting on stdio")
		return srv.Listen(gctx, os.Stdin, os.Stdout)
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.Logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error("MCP server error", slog.String("error", err.Error()))
		return err
	}

	a.Logger.Info("MCP server stopped")
	return nil
}
