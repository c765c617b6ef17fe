package service

import (
	"context"
	"fmt"

	"golang-stock-analysis/config"
	"golang-stock-analysis/internal/model"
	"golang-stock-analysis/internal/repository"
	"golang-stock-analysis/pkg/logger"
	"golang-stock-analysis/pkg/telegram"
	"golang-stock-analysis/pkg/utils"
)

type HousekeepingService interface {
	RetentionCleanup(ctx context.Context) error
	WeeklyStats(ctx context.Context) error
}

type housekeepingService struct {
	cfg        *config.Config
	log        *logger.Logger
	jobRepo    repository.MonitoringJobRepository
	recordRepo repository.MonitoringRecordRepository
	recRepo    repository.DailyRecommendationRepository
	notifier   *telegram.Notifier
}

func NewHousekeepingService(
	cfg *config.Config,
	log *logger.Logger,
	jobRepo repository.MonitoringJobRepository,
	recordRepo repository.MonitoringRecordRepository,
	recRepo repository.DailyRecommendationRepository,
	notifier *telegram.Notifier,
) HousekeepingService {
	return &housekeepingService{
		cfg:        cfg,
		log:        log,
		jobRepo:    jobRepo,
		recordRepo: recordRepo,
		recRepo:    recRepo,
		notifier:   notifier,
	}
}

// RetentionCleanup removes data past the retention window: monitoring
// records, long-stopped jobs and expired recommendation versions. Active
// recommendations are never touched.
func (s *housekeepingService) RetentionCleanup(ctx context.Context) error {
	cutoff := utils.TimeNowMarket().Add(-s.cfg.Scheduler.RetentionMaxAge)

	records, err := s.recordRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old monitoring records: %w", err)
	}

	jobs, err := s.jobRepo.DeleteStoppedOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old stopped jobs: %w", err)
	}

	recs, err := s.recRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old recommendations: %w", err)
	}

	s.log.InfoContext(ctx, "Retention cleanup completed",
		logger.IntField("records_deleted", int(records)),
		logger.IntField("jobs_deleted", int(jobs)),
		logger.IntField("recommendations_deleted", int(recs)),
	)
	return nil
}

// WeeklyStats summarizes the past week's activity.
func (s *housekeepingService) WeeklyStats(ctx context.Context) error {
	now := utils.TimeNowMarket()
	weekAgo := now.AddDate(0, 0, -7)

	jobCounts, err := s.jobRepo.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to count jobs by status: %w", err)
	}

	records, err := s.recordRepo.CountSince(ctx, weekAgo)
	if err != nil {
		return fmt.Errorf("failed to count weekly records: %w", err)
	}

	recs, err := s.recRepo.CountSince(ctx, weekAgo)
	if err != nil {
		return fmt.Errorf("failed to count weekly recommendations: %w", err)
	}

	s.log.InfoContext(ctx, "Weekly monitoring stats",
		logger.IntField("jobs_running", int(jobCounts[model.JobStatusRunning])),
		logger.IntField("jobs_paused", int(jobCounts[model.JobStatusPaused])),
		logger.IntField("jobs_stopped", int(jobCounts[model.JobStatusStopped])),
		logger.IntField("records_7d", int(records)),
		logger.IntField("recommendations_7d", int(recs)),
	)

	s.notifier.Send(ctx, fmt.Sprintf(
		"*Weekly stats*\nJobs: %d running / %d paused / %d stopped\nRecords this week: %d\nRecommendations this week: %d",
		jobCounts[model.JobStatusRunning],
		jobCounts[model.JobStatusPaused],
		jobCounts[model.JobStatusStopped],
		records,
		recs,
	))
	return nil
}
