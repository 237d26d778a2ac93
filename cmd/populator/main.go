// Command populator harvests a THREDDS catalog into a STAC API collection.
// It crawls the catalog, assembles one validated STAC item per dataset,
// publishes items as it goes, and folds each item into the collection's
// extent and summaries.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/nimbusgeo/stac-populator/internal/adapter/http"
	kafkaadapter "github.com/nimbusgeo/stac-populator/internal/adapter/kafka"
	"github.com/nimbusgeo/stac-populator/internal/adapter/stacapi"
	"github.com/nimbusgeo/stac-populator/internal/adapter/thredds"
	"github.com/nimbusgeo/stac-populator/internal/config"
	"github.com/nimbusgeo/stac-populator/internal/observability"
	"github.com/nimbusgeo/stac-populator/internal/pipeline"
	"github.com/nimbusgeo/stac-populator/internal/schemavalidate"
	"github.com/nimbusgeo/stac-populator/internal/stac"
)

func main() {
	updateOnly := flag.Bool("update-collection-only", false,
		"recompute the collection aggregates from its already published items, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := stacapi.NewClient(cfg.StacAPIURL, cfg.RequestTimeout, logger, metrics)
	if err := client.CheckReachable(ctx); err != nil {
		logger.Error("STAC API check failed", "error", err)
		os.Exit(1)
	}

	collection, err := stac.LoadCollectionConfig(cfg.CollectionPath)
	if err != nil {
		logger.Error("failed to load collection configuration", "error", err)
		os.Exit(1)
	}

	if *updateOnly {
		err := pipeline.UpdateAPICollection(ctx, logger, client, client,
			collection.ID, cfg.UpdateMode, cfg.ExcludeSummaries)
		if err != nil {
			logger.Error("collection update failed", "collection_id", collection.ID, "error", err)
			os.Exit(1)
		}
		logger.Info("collection update complete", "collection_id", collection.ID)
		return
	}

	validator, err := schemavalidate.NewCache(cfg.SchemaCacheSize)
	if err != nil {
		logger.Error("failed to create schema cache", "error", err)
		os.Exit(1)
	}

	family, err := pipeline.LookupFamily(cfg.DatasetFamily, validator, &http.Client{Timeout: cfg.RequestTimeout})
	if err != nil {
		logger.Error("failed to resolve dataset family", "error", err)
		os.Exit(1)
	}
	builder := pipeline.NewBuilder(logger, validator, family.ItemID, family.Helpers)

	loader, err := thredds.NewCatalogLoader(cfg.CatalogURL, cfg.CrawlDepth, cfg.RequestTimeout, logger)
	if err != nil {
		logger.Error("failed to create catalog loader", "error", err)
		os.Exit(1)
	}

	var events pipeline.ItemEventPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		events = writer
		logger.Info("item event publishing enabled", "topic", cfg.KafkaTopic)
	}

	ingestor := pipeline.NewIngestor(pipeline.IngestorOptions{
		Loader:           loader,
		Builder:          builder,
		Sink:             client,
		Events:           events,
		Collection:       collection,
		Mode:             cfg.UpdateMode,
		ExcludeSummaries: cfg.ExcludeSummaries,
		ErrorDumpDir:     cfg.ErrorDumpDir,
		Logger:           logger,
		Metrics:          metrics,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, ingestor, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the harvest. The run finishing ends the process; a signal ends it
	// early.
	runErr := make(chan error, 1)
	go func() {
		_, err := ingestor.Run(ctx)
		runErr <- err
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutting down", "reason", ctx.Err())
	case err := <-runErr:
		if err != nil {
			logger.Error("harvest run failed", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	os.Exit(exitCode)
}
