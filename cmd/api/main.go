package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jobpulse/jobpulse/internal/api"
	"github.com/jobpulse/jobpulse/internal/archive"
	"github.com/jobpulse/jobpulse/internal/config"
	"github.com/jobpulse/jobpulse/internal/logger"
	"github.com/jobpulse/jobpulse/internal/provider"
	"github.com/jobpulse/jobpulse/internal/repository"
	"github.com/jobpulse/jobpulse/internal/service"
	"github.com/jobpulse/jobpulse/internal/strategy"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	companyRepo := repository.NewCompanyRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	postingRepo := repository.NewPostingRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	runRepo := repository.NewRunRepository(db)
	queryRepo := repository.NewQueryRepository(db)

	var client provider.Client
	if cfg.Provider.UseMock {
		appLogger.Warn("Using mock scrape provider")
		client = &provider.MockClient{}
	} else {
		client = provider.NewBrightDataClient(&cfg.Provider)
	}

	snapshotArchive, err := archive.New(&cfg.Archive)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize snapshot archive")
	}

	processor := service.NewProcessor(companyRepo, locationRepo, postingRepo, historyRepo, appLogger)
	strategist := strategy.NewStrategist(runRepo)
	orchestrator := newOrchestrator(queryRepo, runRepo, strategist, client, processor, snapshotArchive, cfg, appLogger)
	lifecycle := service.NewLifecycle(postingRepo, runRepo, appLogger)

	router := api.SetupRouter(queryRepo, runRepo, orchestrator, lifecycle, appLogger, &cfg.Server)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithField("port", cfg.Server.Port).Info("API server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}
}

// newOrchestrator keeps the wiring noise out of main.
func newOrchestrator(
	queryRepo *repository.QueryRepository,
	runRepo *repository.RunRepository,
	strategist *strategy.Strategist,
	client provider.Client,
	processor *service.Processor,
	snapshotArchive *archive.S3Archive,
	cfg *config.Config,
	log *logger.Logger,
) *service.Orchestrator {
	var archiver service.SnapshotArchiver
	if snapshotArchive != nil {
		archiver = snapshotArchive
	}
	return service.NewOrchestrator(queryRepo, runRepo, strategist, client, processor, archiver, &cfg.Provider, log)
}
