package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/config"
	httpHandler "github.com/yokitheyo/hordegen/internal/handler/http"
	"github.com/yokitheyo/hordegen/internal/handler/middleware"
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
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Horde Generation API Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
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
		zlog.Logger.Fatal().Err(err).Msg("Migrations failed")
	}

	storageService, err := storage.New(&cfg.Storage)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	kafkaProducer := kafka.NewProducer(&cfg.Kafka)
	defer kafkaProducer.Close()

	// Generation pipeline
	publisher := status.NewPublisher()
	go status.Observe(ctx, publisher)

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
	jobUsecase := usecase.NewJobUsecase(repo, storageService, kafkaProducer)

	engine := ginext.New("api")
	engine.Use(
		middleware.ErrorHandlerMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.CORSMiddleware(),
	)

	engine.GET("/health", func(c *ginext.Context) {
		c.JSON(http.StatusOK, ginext.H{"status": "ok"})
	})
	metricsHandler := metrics.Handler()
	engine.GET("/metrics", func(c *ginext.Context) {
		metricsHandler.ServeHTTP(c.Writer, c.Request)
	})

	generationHandler := httpHandler.NewGenerationHandler(generationUsecase, jobUsecase, publisher)
	generationHandler.RegisterRoutes(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Logger.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")

	// ends open status streams so Shutdown does not wait for them
	publisher.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	} else {
		zlog.Logger.Info().Msg("HTTP server stopped gracefully")
	}

	zlog.Logger.Info().Msg("API shutdown complete")
}
