// Package main wires together the edital resolver service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pubsubclient "cloud.google.com/go/pubsub"
	gcsclient "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/api"
	"github.com/licitaware/edital-resolver/internal/cache"
	"github.com/licitaware/edital-resolver/internal/clock/system"
	"github.com/licitaware/edital-resolver/internal/config"
	"github.com/licitaware/edital-resolver/internal/edital"
	"github.com/licitaware/edital-resolver/internal/extract/ocr"
	"github.com/licitaware/edital-resolver/internal/extract/pdftext"
	"github.com/licitaware/edital-resolver/internal/fetch"
	"github.com/licitaware/edital-resolver/internal/headless"
	"github.com/licitaware/edital-resolver/internal/logging"
	"github.com/licitaware/edital-resolver/internal/metrics"
	nooppublisher "github.com/licitaware/edital-resolver/internal/publisher/noop"
	pubsubpublisher "github.com/licitaware/edital-resolver/internal/publisher/pubsub"
	"github.com/licitaware/edital-resolver/internal/registry"
	"github.com/licitaware/edital-resolver/internal/resolver"
	gcsstore "github.com/licitaware/edital-resolver/internal/storage/gcs"
	localstore "github.com/licitaware/edital-resolver/internal/storage/local"
	noopstore "github.com/licitaware/edital-resolver/internal/storage/noop"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()
	store := cache.New(cfg.Cache, clock, logger.Named("cache"))
	fetcher := fetch.New(cfg.Fetch, logger.Named("fetch"))
	pdfExtractor := pdftext.New(logger.Named("pdftext"))

	var ocrEngine edital.OcrEngine = ocr.Null{}
	if cfg.OCR.Enabled {
		ocrEngine = ocr.New(cfg.OCR, logger.Named("ocr"))
	}

	var registryClient resolver.RegistryLookup
	if cfg.Registry.Enabled {
		registryClient = registry.NewClient(cfg.Registry, logger.Named("registry"))
	}

	var renderer edital.DocumentRenderer
	if cfg.Headless.Enabled {
		capturer, err := headless.NewCapturer(cfg.Headless, logger.Named("headless"))
		if err != nil {
			logger.Warn("headless capturer init failed", zap.Error(err))
		} else {
			renderer = capturer
			defer func() {
				if closeErr := capturer.Close(context.Background()); closeErr != nil {
					logger.Warn("headless close failed", zap.Error(closeErr))
				}
			}()
		}
	}

	artifactStore, err := buildArtifactStore(ctx, cfg.Storage)
	if err != nil {
		logger.Error("artifact store init failed", zap.Error(err))
		os.Exit(1)
	}
	events, err := buildPublisher(ctx, cfg.PubSub)
	if err != nil {
		logger.Error("publisher init failed", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		if closeErr := events.Close(); closeErr != nil {
			logger.Warn("publisher close failed", zap.Error(closeErr))
		}
	}()

	service := resolver.New(resolver.Deps{
		Cache:    store,
		Fetcher:  fetcher,
		PDF:      pdfExtractor,
		OCR:      ocrEngine,
		Renderer: renderer,
		Registry: registryClient,
		Store:    artifactStore,
		Events:   events,
		Clock:    clock,
		Logger:   logger.Named("resolver"),
	})

	apiServer := api.NewServer(service, cfg.OCR, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func buildArtifactStore(ctx context.Context, cfg config.StorageConfig) (edital.ArtifactStore, error) {
	switch cfg.Backend {
	case "local":
		return localstore.New(localstore.Config{BaseDir: cfg.BaseDir})
	case "gcs":
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		return gcsstore.New(client, gcsstore.Config{Bucket: cfg.GCSBucket, Prefix: cfg.Prefix})
	default:
		return noopstore.New(), nil
	}
}

func buildPublisher(ctx context.Context, cfg config.PubSubConfig) (edital.Publisher, error) {
	if cfg.ProjectID == "" || cfg.TopicName == "" {
		return nooppublisher.New(), nil
	}
	client, err := pubsubclient.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	return pubsubpublisher.New(client, cfg.TopicName)
}
