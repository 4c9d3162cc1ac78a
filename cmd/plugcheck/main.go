// Command plugcheck is the terminal plug checker. It reads the reference
// artifact written by fetchdata and logs to LOG_FILE so the UI stays clean.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/krazybird78/travel-plug-checker/internal/affiliate"
	"github.com/krazybird78/travel-plug-checker/internal/application"
	"github.com/krazybird78/travel-plug-checker/internal/config"
	"github.com/krazybird78/travel-plug-checker/internal/core"
	"github.com/krazybird78/travel-plug-checker/internal/dataset"
	"github.com/krazybird78/travel-plug-checker/internal/logging"
)

func main() {
	_ = godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logFile, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open log file:", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logging.Setup(logFile, cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("plugcheck failed", "error", core.NewUserError(err))
		fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		logFile.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	profiles, err := dataset.ReadArtifact(cfg.Dataset.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrDatasetUnavailable, err)
	}
	catalog := core.NewCatalog(profiles)

	links, err := affiliate.LoadFile(cfg.Affiliate.File)
	if err != nil {
		return err
	}
	links = links.WithDefaultRegion(affiliate.Region(cfg.Affiliate.DefaultRegion))

	region := links.DetectRegion(localZone())
	slog.Info("plugcheck starting", "countries", catalog.Len(), "region", region)

	return application.Run(application.NewModel(catalog, links, region, cfg.Affiliate.ProductASIN))
}

// localZone returns the IANA name of the local time zone, preferring TZ.
func localZone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}
	return time.Local.String()
}
