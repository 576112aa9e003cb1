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

	"kaizen/internal/auth"
	"kaizen/internal/blob"
	"kaizen/internal/config"
	"kaizen/internal/employee"
	"kaizen/internal/hierarchy"
	"kaizen/internal/metrics"
	"kaizen/internal/project"
	"kaizen/internal/report"
	"kaizen/internal/server"
	"kaizen/internal/storage/postgres"
	"kaizen/internal/storage/sqlite"
)

// recordStore is what both storage adapters provide.
type recordStore interface {
	project.Repository
	employee.Repository
	hierarchy.Directory
	report.DataSource
}

func main() {
	configFlag := flag.String("config", "", "path to config file (defaults to KAIZEN_CONFIG or "+config.DefaultPath+")")
	flag.Parse()

	cfg, err := config.Load(config.ResolvePath(*configFlag))
	if err != nil {
		slog.Error("unable to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	logger.Info("kaizen backend starting", slog.String("driver", cfg.Database.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	blobs, err := blob.NewLocalStorage(cfg.Storage.RootDir, cfg.Storage.PublicBaseURL)
	if err != nil {
		logger.Error("unable to prepare image storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loc, err := cfg.Report.Location()
	if err != nil {
		logger.Error("unable to resolve report timezone", slog.String("error", err.Error()))
		os.Exit(1)
	}

	m := metrics.New()
	resolver := hierarchy.NewResolver(store)
	services := server.Services{
		Projects: project.NewService(store, store, resolver, blobs, logger,
			project.WithObserver(m),
			project.WithMaxImageBytes(cfg.Storage.MaxImageBytes),
			project.WithLocation(loc),
		),
		Employees: employee.NewService(store),
		Reports:   report.NewService(store, report.WithLocation(loc)),
	}

	opts := server.Options{
		StaticDir:      cfg.Server.StaticDir,
		UploadsDir:     blobs.Root(),
		UploadsPath:    cfg.Storage.PublicBaseURL,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Metrics:        m,
	}
	if cfg.RateLimit.Enabled {
		opts.RateLimit = cfg.RateLimit.Rate
	}

	srv, err := server.New(services, auth.NewVerifier(cfg.Auth.JWTSecret), logger, opts)
	if err != nil {
		logger.Error("unable to build server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (recordStore, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return postgres.New(pool), pool.Close, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
