// Command fetchdata downloads the world plug dataset, normalises it into
// country profiles and writes the reference artifact. With DATASET_PUBLISH
// set it also publishes the profiles to PostgreSQL.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/krazybird78/travel-plug-checker/internal/config"
	"github.com/krazybird78/travel-plug-checker/internal/core"
	"github.com/krazybird78/travel-plug-checker/internal/dataset"
	"github.com/krazybird78/travel-plug-checker/internal/logging"
	"github.com/krazybird78/travel-plug-checker/internal/store"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	if err := run(context.Background(), cfg); err != nil {
		slog.Error("fetchdata failed", "error", core.NewUserError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	fetchCtx, cancel := context.WithTimeout(ctx, cfg.Dataset.FetchTimeout)
	defer cancel()

	slog.Info("fetching dataset", "source", cfg.Dataset.SourceURL, "timeout", cfg.Dataset.FetchTimeout)

	profiles, err := dataset.Fetch(fetchCtx, http.DefaultClient, cfg.Dataset.SourceURL)
	if err != nil {
		return err
	}

	slog.Info("dataset parsed", "countries", len(profiles))

	// Publish before touching the artifact so a database failure leaves the
	// previous artifact in place.
	if cfg.Dataset.Publish {
		if err := publish(ctx, cfg, profiles); err != nil {
			return err
		}
	}

	if err := dataset.WriteArtifact(cfg.Dataset.Path, profiles); err != nil {
		return err
	}

	slog.Info("artifact written", "path", cfg.Dataset.Path)
	return nil
}

func publish(ctx context.Context, cfg *config.Config, profiles []core.Profile) error {
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	s := store.New(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}

	_, err = s.Publish(ctx, profiles, cfg.Dataset.SourceURL)
	return err
}
