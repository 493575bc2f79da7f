// Command steelhookd files ship steel objects into the arrangement tree as
// the host reports them, and serves the result over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chazu/steelhook/pkg/api"
	"github.com/chazu/steelhook/pkg/arrangement"
	"github.com/chazu/steelhook/pkg/config"
	"github.com/chazu/steelhook/pkg/database"
	"github.com/chazu/steelhook/pkg/engine"
	"github.com/chazu/steelhook/pkg/hooks"
	"github.com/chazu/steelhook/pkg/kernel/sdfx"
	"github.com/chazu/steelhook/pkg/steel"
	"github.com/chazu/steelhook/pkg/store"
	"github.com/chazu/steelhook/pkg/zone"
)

// Version is set at build time.
var Version = "dev"

var (
	_ engine.Host      = (*steel.Service)(nil)
	_ hooks.Filer      = (*steel.Service)(nil)
	_ api.ObjectWriter = (*store.SQLiteObjectStore)(nil)
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	s := store.New(db, sdfx.New())
	if cfg.ZonesFile != "" {
		pd, err := zone.LoadProjectFile(cfg.ZonesFile)
		if err != nil {
			return fmt.Errorf("load zones file: %w", err)
		}
		if err := s.ImportProject(ctx, pd); err != nil {
			return fmt.Errorf("import zones file: %w", err)
		}
		logger.Info("project data imported", "file", cfg.ZonesFile, "tables", len(pd.Tables), "surfaces", len(pd.Surfaces))
	}

	catalog := zone.NewCatalog(s.Tables,
		zone.WithCoordinates(zone.Coordinates{FrameSpacing: cfg.FrameSpacing, FrameOrigin: cfg.FrameOrigin}),
		zone.WithLogger(logger),
	)
	resolver := zone.NewResolver(catalog, s.Surfaces)

	tree, err := arrangement.NewTreeStore(ctx, s.Arrangement,
		arrangement.WithLogger(logger),
		arrangement.WithNotifier(arrangement.NotifierFunc(func(n arrangement.Notification) {
			logger.Debug("arrangement changed",
				"batch", n.BatchID.String(), "kind", string(n.Kind), "nodes", n.Nodes, "object", n.Object)
		})),
	)
	if err != nil {
		return fmt.Errorf("open arrangement tree: %w", err)
	}

	svc := steel.NewService(s.Objects, s.Types, resolver, tree, s.Labels, steel.WithLogger(logger))
	eng := engine.NewEngine(svc, engine.WithLogger(logger))

	queue := hooks.NewQueue(logger)
	defer queue.Close()
	disp := hooks.NewDispatcher(s.Objects, svc, queue,
		hooks.WithScripts(eng, cfg.HooksDir),
		hooks.WithLogger(logger),
	)
	disp.SetEnabled(cfg.HooksEnabled)
	bus := hooks.NewBus()
	defer disp.Attach(bus)()

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e)
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Objects:    s.Objects,
		Labels:     s.Labels,
		Steel:      svc,
		Dispatcher: disp,
		Events:     bus,
		Version:    Version,
	}))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("shutting down server")
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting steelhook server", "addr", cfg.Addr, "hooks_dir", cfg.HooksDir, "hooks_enabled", cfg.HooksEnabled)
	if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	queue.Flush()
	return nil
}
