// Package main wires together the asset discovery service binary.
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

	gcspubsub "cloud.google.com/go/pubsub"
	gcsstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/datalode/assetscout/internal/aggregate"
	"github.com/datalode/assetscout/internal/api"
	"github.com/datalode/assetscout/internal/asset"
	"github.com/datalode/assetscout/internal/clock/system"
	"github.com/datalode/assetscout/internal/config"
	"github.com/datalode/assetscout/internal/dispatcher"
	"github.com/datalode/assetscout/internal/extract"
	collyfetcher "github.com/datalode/assetscout/internal/fetcher/colly"
	headlessfetcher "github.com/datalode/assetscout/internal/fetcher/headless"
	"github.com/datalode/assetscout/internal/hash/sha256"
	"github.com/datalode/assetscout/internal/id/uuid"
	"github.com/datalode/assetscout/internal/logging"
	"github.com/datalode/assetscout/internal/metrics"
	"github.com/datalode/assetscout/internal/policy/ratelimit"
	memorypublisher "github.com/datalode/assetscout/internal/publisher/memory"
	pubsubpublisher "github.com/datalode/assetscout/internal/publisher/pubsub"
	queueMemory "github.com/datalode/assetscout/internal/queue/memory"
	"github.com/datalode/assetscout/internal/render"
	"github.com/datalode/assetscout/internal/search"
	"github.com/datalode/assetscout/internal/stats"
	"github.com/datalode/assetscout/internal/storage/archive"
	gcsblob "github.com/datalode/assetscout/internal/storage/gcs"
	memoryStorage "github.com/datalode/assetscout/internal/storage/memory"
	"github.com/datalode/assetscout/internal/storage/postgres"
	"github.com/datalode/assetscout/internal/worker"
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

	var jobStore asset.JobStore = memoryStorage.NewJobStore()
	if cfg.DB.DSN != "" {
		assetStore, err := postgres.NewAssetStore(ctx, postgres.AssetStoreConfig{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: int32(cfg.DB.MaxOpenConns),
			MinConns: int32(cfg.DB.MinConns),
		})
		if err != nil {
			logger.Fatal("postgres init failed", zap.Error(err))
		}
		defer assetStore.Close()
		jobStore, err = archive.Wrap(jobStore, assetStore, logger.Named("archive"))
		if err != nil {
			logger.Fatal("archive init failed", zap.Error(err))
		}
	}

	var blobStore asset.BlobStore = memoryStorage.NewBlobStore()
	if cfg.Storage.GCSBucket != "" {
		gcsClient, err := gcsstorage.NewClient(ctx)
		if err != nil {
			logger.Fatal("gcs client init failed", zap.Error(err))
		}
		blobStore, err = gcsblob.New(gcsClient, gcsblob.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			logger.Fatal("gcs blob store init failed", zap.Error(err))
		}
	}

	var publisher asset.Publisher = memorypublisher.New()
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.TopicName != "" {
		pubsubClient, err := gcspubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("pubsub client init failed", zap.Error(err))
		}
		publisher = pubsubpublisher.New(pubsubClient)
	}

	queue := queueMemory.NewQueue(cfg.Extractor.GlobalQueueDepth)
	hasher := sha256.New()
	clock := system.New()
	idGen := uuid.New()
	detect := render.NewHeuristic(cfg.Render.BodyLengthMinimum)
	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.RateLimit.DefaultRPS,
		DefaultBurst: cfg.RateLimit.DefaultBurst,
	})
	pipeline := extract.New(extract.Config{}, clock, logger.Named("extract"))

	probeFetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Extractor.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})
	var renderer asset.Fetcher
	if cfg.Render.Enabled {
		headless, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
			MaxParallel:       cfg.Render.MaxParallel,
			UserAgent:         cfg.Extractor.UserAgent,
			NavigationTimeout: time.Duration(cfg.Render.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Warn("headless fetcher init failed", zap.Error(err))
		} else {
			renderer = headless
		}
	}

	workerCfg := worker.Config{
		BlobPrefix: cfg.Storage.Prefix,
		Topic:      cfg.PubSub.TopicName,
	}

	var workers []*worker.Worker
	for i := 0; i < cfg.Extractor.Concurrency; i++ {
		workers = append(workers, worker.New(
			queue,
			jobStore,
			blobStore,
			publisher,
			hasher,
			clock,
			probeFetcher,
			renderer,
			detect,
			limiter,
			pipeline,
			workerCfg,
			logger.Named("worker").With(zap.Int("index", i)),
		))
	}
	dispatch := dispatcher.New(queue, workers)

	var searchProvider asset.SearchProvider
	if cfg.Search.BaseURL != "" {
		searchClient, err := search.New(cfg.Search.BaseURL, cfg.Search.APIKey)
		if err != nil {
			logger.Fatal("search client init failed", zap.Error(err))
		}
		searchProvider = searchClient
	}
	var statsProvider asset.StatsProvider
	if cfg.Stats.BaseURL != "" {
		statsClient, err := stats.New(cfg.Stats.BaseURL)
		if err != nil {
			logger.Fatal("stats client init failed", zap.Error(err))
		}
		statsProvider = statsClient
	}
	var aggregator *aggregate.Aggregator
	if searchProvider != nil || statsProvider != nil {
		aggregator = aggregate.New(searchProvider, statsProvider, logger.Named("aggregate"))
	}

	apiServer := api.NewServer(jobStore, dispatch, idGen, clock, aggregator, statsProvider, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("dispatcher started", zap.Int("workers", len(workers)))
		dispatch.Run(ctx)
	}()

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
	queue.Close()
	logger.Info("shutdown complete")
}
