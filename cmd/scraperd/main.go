package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jobpulse/jobpulse/internal/archive"
	"github.com/jobpulse/jobpulse/internal/config"
	"github.com/jobpulse/jobpulse/internal/logger"
	"github.com/jobpulse/jobpulse/internal/provider"
	"github.com/jobpulse/jobpulse/internal/repository"
	"github.com/jobpulse/jobpulse/internal/scheduler"
	"github.com/jobpulse/jobpulse/internal/service"
	"github.com/jobpulse/jobpulse/internal/strategy"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "jobpulse-scraperd",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	configPath := flag.String("config", "", "Path to config file")
	once := flag.Bool("once", false, "Run one scrape cycle and exit instead of scheduling")
	flag.Parse()

	cfg, err := config.Load(*configPath)
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
	var archiver service.SnapshotArchiver
	if snapshotArchive != nil {
		archiver = snapshotArchive
	}

	processor := service.NewProcessor(companyRepo, locationRepo, postingRepo, historyRepo, appLogger)
	strategist := strategy.NewStrategist(runRepo)
	orchestrator := service.NewOrchestrator(queryRepo, runRepo, strategist, client, processor, archiver, &cfg.Provider, appLogger)
	lifecycle := service.NewLifecycle(postingRepo, runRepo, appLogger)

	var enrichment *service.EnrichmentService
	if cfg.Enrich.APIKey != "" {
		enricher := service.NewOpenAIClient(&cfg.Enrich)
		policy := service.RetryPolicy{Delay: cfg.Enrich.RetryDelay()}
		enrichment = service.NewEnrichmentService(postingRepo, enricher, policy, cfg.Enrich.BatchLimit, appLogger)
	} else {
		appLogger.Warn("No enrichment API key configured, enrichment pass disabled")
	}

	ranker := service.NewRanker(postingRepo, cfg.Enrich.BatchLimit, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(queryRepo, runRepo, orchestrator, lifecycle, enrichment, ranker, cfg, appLogger)

	if *once {
		sched.RunOnce(ctx)
		return
	}

	if err := sched.Start(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to start scheduler")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down")
	cancel()
	sched.Stop()
}
