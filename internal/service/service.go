package service

import (
	"context"

	"golang-stock-analysis/config"
	"golang-stock-analysis/internal/repository"
	"golang-stock-analysis/pkg/cache"
	"golang-stock-analysis/pkg/logger"
	"golang-stock-analysis/pkg/telegram"
)

type Service struct {
	cfg                   *config.Config
	Scheduler             *TriggerScheduler
	MonitoringService     MonitoringService
	RecommendationService RecommendationService
	HousekeepingService   HousekeepingService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	notifier *telegram.Notifier,
) (*Service, error) {
	scheduler, err := NewTriggerScheduler(cfg, log)
	if err != nil {
		return nil, err
	}

	monitoringService := NewMonitoringService(cfg, log, repo.MonitoringJobRepo, repo.MonitoringRecordRepo, repo.MoneyFlowRepo, repo.GeminiAIRepo, scheduler, notifier)
	recommendationService := NewRecommendationService(cfg, log, repo.DailyRecommendationRepo, repo.GeminiAIRepo, repo.UnitOfWork, inmemoryCache, notifier)
	housekeepingService := NewHousekeepingService(cfg, log, repo.MonitoringJobRepo, repo.MonitoringRecordRepo, repo.DailyRecommendationRepo, notifier)

	return &Service{
		cfg:                   cfg,
		Scheduler:             scheduler,
		MonitoringService:     monitoringService,
		RecommendationService: recommendationService,
		HousekeepingService:   housekeepingService,
	}, nil
}

// SetupTriggers wires the fixed wall-clock triggers. Call once before
// Scheduler.Start.
func (s *Service) SetupTriggers() error {
	sched := s.cfg.Scheduler

	triggers := []struct {
		name    string
		spec    string
		timeout timeoutKind
		fn      TriggerFunc
	}{
		{"daily_pick", sched.DailyPickCron, timeoutGeneration, s.runDailyPick},
		{"status_check", sched.StatusCheckCron, timeoutTick, s.RecommendationService.CheckDailyStatus},
		{"lunch_pause", sched.LunchPauseCron, timeoutTick, s.MonitoringService.PauseAllJobs},
		{"lunch_resume", sched.LunchResumeCron, timeoutTick, s.MonitoringService.ResumeAllJobs},
		{"market_close", sched.MarketCloseCron, timeoutTick, s.MonitoringService.CleanupAllJobs},
		{"retention_cleanup", sched.RetentionCron, timeoutTick, s.HousekeepingService.RetentionCleanup},
		{"weekly_stats", sched.WeeklyStatsCron, timeoutTick, s.HousekeepingService.WeeklyStats},
	}

	for _, t := range triggers {
		timeout := sched.TickTimeout
		if t.timeout == timeoutGeneration {
			timeout = sched.GenerationTimeout
		}
		if err := s.Scheduler.RegisterFixedTrigger(t.name, t.spec, timeout, t.fn); err != nil {
			return err
		}
	}
	return nil
}

type timeoutKind int

const (
	timeoutTick timeoutKind = iota
	timeoutGeneration
)

// runDailyPick generates the day's recommendation when none is active yet.
// The scheduled firing never regenerates over an existing active record;
// regeneration happens only through the manual trigger.
func (s *Service) runDailyPick(ctx context.Context) error {
	needsUpdate, err := s.RecommendationService.NeedsUpdate(ctx)
	if err != nil {
		return err
	}
	if !needsUpdate {
		return nil
	}

	_, err = s.RecommendationService.GenerateDailyRecommendation(ctx)
	return err
}
