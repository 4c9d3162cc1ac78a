package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/krazybird78/travel-plug-checker/internal/affiliate"
	"github.com/krazybird78/travel-plug-checker/internal/config"
	"github.com/krazybird78/travel-plug-checker/internal/core"
	"github.com/krazybird78/travel-plug-checker/internal/dataset"
	"github.com/krazybird78/travel-plug-checker/internal/logging"
	"github.com/krazybird78/travel-plug-checker/internal/metrics"
	"github.com/krazybird78/travel-plug-checker/internal/store"
	"github.com/krazybird78/travel-plug-checker/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"dataset_backend", cfg.Dataset.Backend,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	load, cleanup, err := catalogSource(ctx, cfg)
	if err != nil {
		slog.Error("failed to open dataset", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	catalog := core.LazyCatalog(load)
	m := metrics.New()

	// Warm the catalog so the first request doesn't pay for loading. A failure
	// here is not fatal: requests answer 503 until the dataset is fixed.
	if c, err := catalog(); err != nil {
		m.ObserveCatalogError()
		slog.Warn("reference catalog unavailable", "error", core.NewUserError(err))
	} else {
		m.SetCatalogSize(c.Len())
		slog.Info("reference catalog loaded", "countries", c.Len())
	}

	links, err := affiliate.LoadFile(cfg.Affiliate.File)
	if err != nil {
		slog.Error("failed to load affiliate table", "error", err)
		os.Exit(1)
	}
	defaultRegion := affiliate.Region(cfg.Affiliate.DefaultRegion)
	links = links.WithDefaultRegion(defaultRegion)

	server := web.NewServer(ctx, cfg, catalog, links, m)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Affiliate.File != "" {
		// Losing the watcher only stops hot reload; keep serving.
		g.Go(func() error {
			err := affiliate.Watch(gctx, cfg.Affiliate.File, func(t *affiliate.Table) {
				server.SetLinks(t.WithDefaultRegion(defaultRegion))
			})
			if err != nil {
				slog.Warn("affiliate watcher stopped", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		slog.Info("server starting", "addr", cfg.Server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown on signal or when the listener fails
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// catalogSource returns the loader for the configured backend and a cleanup
// function for any resources it holds.
func catalogSource(ctx context.Context, cfg *config.Config) (func() ([]core.Profile, error), func(), error) {
	if !strings.EqualFold(cfg.Dataset.Backend, config.BackendPostgres) {
		load := func() ([]core.Profile, error) {
			return dataset.ReadArtifact(cfg.Dataset.Path)
		}
		return load, func() {}, nil
	}

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	s := store.New(pool)

	load := func() ([]core.Profile, error) {
		loadCtx, cancel := context.WithTimeout(context.Background(), cfg.Dataset.FetchTimeout)
		defer cancel()

		if build, err := s.LatestBuild(loadCtx); err == nil {
			slog.Info("loading published dataset", "build_id", build.ID, "source", build.Source, "published_at", build.CreatedAt)
		} else if errors.Is(err, store.ErrNoBuild) {
			return nil, err
		}
		return s.Profiles(loadCtx)
	}
	return load, pool.Close, nil
}
