package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scharissis/coh3-replay-analyser/internal/archive"
	"github.com/scharissis/coh3-replay-analyser/internal/config"
	"github.com/scharissis/coh3-replay-analyser/internal/logging"
	"github.com/scharissis/coh3-replay-analyser/internal/lookup"
	"github.com/scharissis/coh3-replay-analyser/internal/metrics"
	"github.com/scharissis/coh3-replay-analyser/internal/server"
)

const retentionInterval = time.Hour

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fatal(err)
	}
	configPath := flag.String("config", "", "YAML config file (default $"+config.EnvConfig+")")
	listen := flag.String("listen", "", "listen address, overrides config")
	dbPath := flag.String("db", "", "SQLite archive path, overrides config")
	noArchive := flag.Bool("no-archive", false, "do not archive parsed reports")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	logger, err := logging.Init(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	table, err := lookup.Shared(cfg.DataDir)
	if err != nil && cfg.DataDir != "" {
		logger.Warn("lookup data unavailable, using built-in names", "dir", cfg.DataDir, "error", err)
	}
	logger.Info("lookup table ready", "source", table.Source(), "entries", table.Len())

	var store *archive.Store
	if !*noArchive {
		store, err = archive.OpenAndMigrate(ctx, cfg.DBPath)
		if err != nil {
			fatal(err)
		}
		defer store.Close() //nolint:errcheck
		startRetentionLoop(ctx, store, cfg.ArchiveRetention, logger)
	}

	srv := server.New(server.Options{
		Store:          store,
		Lookup:         table,
		Metrics:        metrics.New(),
		Logger:         logger,
		DefaultFilter:  cfg.Filter,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err := srv.Start(ctx, cfg.Listen); err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}
}

// startRetentionLoop purges archived reports older than retention. Zero
// retention keeps everything.
func startRetentionLoop(ctx context.Context, store *archive.Store, retention time.Duration, logger *slog.Logger) {
	if retention <= 0 {
		return
	}
	run := func() {
		n, err := store.PurgeBefore(ctx, time.Now().UTC().Add(-retention))
		if err != nil {
			logger.Warn("retention purge failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("retention purge", "deleted", n)
		}
	}

	run()
	go func() {
		ticker := time.NewTicker(retentionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}

func fatal(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "replayd: %v\n", err)
	os.Exit(1)
}
