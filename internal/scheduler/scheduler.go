// Package scheduler wires the periodic jobs: the scrape cycle over due
// queries, the lifecycle sweeps, the enrichment retry pass, and the
// ranking pass.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jobpulse/jobpulse/internal/config"
	"github.com/jobpulse/jobpulse/internal/logger"
	"github.com/jobpulse/jobpulse/internal/repository"
	"github.com/jobpulse/jobpulse/internal/service"
	"github.com/jobpulse/jobpulse/internal/strategy"
)

// Scheduler wraps robfig/cron and owns the periodic pipeline passes.
type Scheduler struct {
	cron         *cron.Cron
	queries      *repository.QueryRepository
	runs         *repository.RunRepository
	orchestrator *service.Orchestrator
	lifecycle    *service.Lifecycle
	enrichment   *service.EnrichmentService
	ranker       *service.Ranker
	cfg          *config.Config
	log          *logger.Logger
}

// New creates a Scheduler over the fully wired services.
func New(
	queries *repository.QueryRepository,
	runs *repository.RunRepository,
	orchestrator *service.Orchestrator,
	lifecycle *service.Lifecycle,
	enrichment *service.EnrichmentService,
	ranker *service.Ranker,
	cfg *config.Config,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		queries:      queries,
		runs:         runs,
		orchestrator: orchestrator,
		lifecycle:    lifecycle,
		enrichment:   enrichment,
		ranker:       ranker,
		cfg:          cfg,
		log:          log,
	}
}

// Start registers the jobs and starts the cron loop. One scrape cycle runs
// immediately so a fresh deployment does not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"scrape", s.cfg.Scheduler.ScrapeSpec, func() { s.runScrapeCycle(ctx) }},
		{"lifecycle", s.cfg.Scheduler.LifecycleSpec, func() { s.runLifecycle(ctx) }},
		{"enrich", s.cfg.Scheduler.EnrichSpec, func() { s.runEnrichment(ctx) }},
		{"rank", s.cfg.Scheduler.RankSpec, func() { s.runRanking(ctx) }},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.fn); err != nil {
			return fmt.Errorf("register %s job: %w", job.name, err)
		}
		s.log.WithFields(logger.Fields{"job": job.name, "spec": job.spec}).Info("Scheduled job")
	}

	s.cron.Start()
	go s.runScrapeCycle(ctx)
	return nil
}

// RunOnce executes one full pass of every job synchronously, for one-shot
// invocations and smoke tests.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runScrapeCycle(ctx)
	s.runLifecycle(ctx)
	s.runEnrichment(ctx)
	s.runRanking(ctx)
}

// Stop shuts down the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// runScrapeCycle triggers a run for every enabled query that is due.
func (s *Scheduler) runScrapeCycle(ctx context.Context) {
	queries, err := s.queries.ListEnabled(ctx)
	if err != nil {
		s.log.WithError(err).Error("Failed to list enabled queries")
		return
	}

	now := time.Now().UTC()
	triggered := 0
	for i := range queries {
		query := &queries[i]
		last, err := s.runs.LastSuccessfulRun(ctx, query.ID)
		if err != nil {
			s.log.WithField(logger.FieldQueryID, query.ID).WithError(err).Error("Failed to load last run")
			continue
		}
		if !strategy.ShouldTrigger(query, last, now) {
			continue
		}

		triggered++
		if _, err := s.orchestrator.RunQuery(ctx, query.ID, nil); err != nil {
			s.log.WithField(logger.FieldQueryID, query.ID).WithError(err).Error("Scrape run failed")
		}
	}

	s.log.WithFields(logger.Fields{
		"queries":   len(queries),
		"triggered": triggered,
	}).Info("Scrape cycle finished")
}

// runLifecycle reaps stuck runs first so their queries become triggerable,
// then retires stale postings.
func (s *Scheduler) runLifecycle(ctx context.Context) {
	now := time.Now().UTC()
	if _, err := s.lifecycle.ReapStuckRuns(ctx, s.cfg.Lifecycle.StuckRunMaxMinutes, now); err != nil {
		s.log.WithError(err).Error("Stuck run sweep failed")
	}
	if _, err := s.lifecycle.MarkInactive(ctx, s.cfg.Lifecycle.InactivityThresholdDays, now); err != nil {
		s.log.WithError(err).Error("Inactivity sweep failed")
	}
}

func (s *Scheduler) runEnrichment(ctx context.Context) {
	if s.enrichment == nil {
		return
	}
	if _, _, err := s.enrichment.RunPass(ctx, time.Now().UTC()); err != nil {
		s.log.WithError(err).Error("Enrichment pass failed")
	}
}

func (s *Scheduler) runRanking(ctx context.Context) {
	if _, err := s.ranker.RunPass(ctx, time.Now().UTC()); err != nil {
		s.log.WithError(err).Error("Ranking pass failed")
	}
}
