package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/errgroup"

	"github.com/yokitheyo/hordegen/internal/config"
	infradatabase "github.com/yokitheyo/hordegen/internal/infrastructure/database"
	"github.com/yokitheyo/hordegen/internal/infrastructure/horde"
	"github.com/yokitheyo/hordegen/internal/infrastructure/kafka"
	"github.com/yokitheyo/hordegen/internal/infrastructure/metrics"
	"github.com/yokitheyo/hordegen/internal/infrastructure/processor"
	"github.com/yokitheyo/hordegen/internal/infrastructure/status"
	"github.com/yokitheyo/hordegen/internal/infrastructure/storage"
	"github.com/yokitheyo/hordegen/internal/repository/postgres"
	"github.com/yokitheyo/hordegen/internal/retry"
	"github.com/yokitheyo/hordegen/internal/usecase"
	"github.com/yokitheyo/hordegen/internal/worker"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Horde Generation Worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := "config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = "/app/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	database, err := infradatabase.Connect(ctx, &cfg.Database)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database after all retries")
	}
	defer infradatabase.Close(database)

	zlog.Logger.Info().Msg("Running database migrations...")
	if err := infradatabase.RunMigrations(database, cfg.Migrations.Path); err != nil {
		zlog.Logger.Warn().Err(err).Msg("Migrations warning (might be already applied)")
	}

	storageService, err := storage.New(&cfg.Storage)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	publisher := status.NewPublisher()
	hordeClient := horde.NewClient(&cfg.Horde, nil)
	imageProcessor := processor.NewImageProcessor(&cfg.Processing)
	fetcher := usecase.NewResultFetcher(
		&http.Client{Timeout: time.Duration(cfg.Horde.RequestTimeoutSec) * time.Second},
		imageProcessor,
		int64(cfg.Processing.MaxAssetSizeMB)*1024*1024,
	)
	generationUsecase := usecase.NewGenerationUsecase(
		hordeClient,
		publisher,
		fetcher,
		imageProcessor,
		time.Duration(cfg.Horde.PollIntervalSec)*time.Second,
		cfg.Horde.Models,
	)

	repo := postgres.NewGenerationRepository(database, retry.DefaultStrategy)
	processorUsecase := usecase.NewProcessorUsecase(
		repo,
		storageService,
		generationUsecase,
		imageProcessor.Extension(),
		time.Duration(cfg.Horde.JobTimeoutSec)*time.Second,
	)
	generationWorker := worker.NewGenerationWorker(processorUsecase)

	kafkaConsumer := kafka.NewConsumer(&cfg.Kafka, generationWorker.HandleGenerationTask)
	defer kafkaConsumer.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return kafkaConsumer.Start(gctx)
	})

	g.Go(func() error {
		status.Observe(gctx, publisher)
		return nil
	})

	if cfg.Metrics.Addr != "" {
		metricsSrv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			zlog.Logger.Info().Str("addr", cfg.Metrics.Addr).Msg("Starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Worker stopped with error")
	}
	zlog.Logger.Info().Msg("Shutdown signal received")

	publisher.Close()

	zlog.Logger.Info().Msg("Worker shutdown complete")
}
