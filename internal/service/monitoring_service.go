package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"golang-stock-analysis/config"
	"golang-stock-analysis/internal/analysis"
	"golang-stock-analysis/internal/dto"
	"golang-stock-analysis/internal/model"
	"golang-stock-analysis/internal/repository"
	"golang-stock-analysis/pkg/logger"
	"golang-stock-analysis/pkg/telegram"
	"golang-stock-analysis/pkg/utils"

	"golang.org/x/sync/errgroup"
)

type MonitoringService interface {
	StartJob(ctx context.Context, stockCode string, intervalMinutes int) (*model.MonitoringJob, error)
	StopJob(ctx context.Context, jobID string) error
	PauseJob(ctx context.Context, jobID string) error
	ResumeJob(ctx context.Context, jobID string) error
	GetJob(ctx context.Context, jobID string) (*model.MonitoringJob, error)
	ListJobs(ctx context.Context, param *model.GetMonitoringJobParam) ([]model.MonitoringJob, error)
	GetRecords(ctx context.Context, stockCode string, limit int) ([]model.MonitoringRecord, error)
	Tick(ctx context.Context, jobID string) error
	PauseAllJobs(ctx context.Context) error
	ResumeAllJobs(ctx context.Context) error
	CleanupAllJobs(ctx context.Context) error
	RestoreJobs(ctx context.Context) error
}

type monitoringService struct {
	cfg           *config.Config
	log           *logger.Logger
	jobRepo       repository.MonitoringJobRepository
	recordRepo    repository.MonitoringRecordRepository
	moneyFlowRepo repository.MoneyFlowRepository
	aiRepo        repository.AIRepository
	scheduler     *TriggerScheduler
	notifier      *telegram.Notifier
}

func NewMonitoringService(
	cfg *config.Config,
	log *logger.Logger,
	jobRepo repository.MonitoringJobRepository,
	recordRepo repository.MonitoringRecordRepository,
	moneyFlowRepo repository.MoneyFlowRepository,
	aiRepo repository.AIRepository,
	scheduler *TriggerScheduler,
	notifier *telegram.Notifier,
) MonitoringService {
	return &monitoringService{
		cfg:           cfg,
		log:           log,
		jobRepo:       jobRepo,
		recordRepo:    recordRepo,
		moneyFlowRepo: moneyFlowRepo,
		aiRepo:        aiRepo,
		scheduler:     scheduler,
		notifier:      notifier,
	}
}

// StartJob creates a running monitoring job for a stock and schedules its
// recurring tick. At most one running job may exist per stock code; the
// partial unique index on the table backs this up under concurrent starts.
func (s *monitoringService) StartJob(ctx context.Context, stockCode string, intervalMinutes int) (*model.MonitoringJob, error) {
	stockCode = strings.TrimSpace(stockCode)
	if stockCode == "" || intervalMinutes <= 0 {
		return nil, fmt.Errorf("invalid stock code or interval")
	}

	existing, err := s.jobRepo.Get(ctx, &model.GetMonitoringJobParam{
		StockCode: stockCode,
		Statuses:  []model.MonitoringJobStatus{model.JobStatusRunning},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check existing jobs: %w", err)
	}
	if len(existing) > 0 {
		return nil, dto.ErrDuplicateRunningJob
	}

	now := utils.TimeNowMarket()
	job := &model.MonitoringJob{
		JobID:           fmt.Sprintf("monitor_%s_%d", stockCode, now.UnixMilli()),
		StockCode:       stockCode,
		IntervalMinutes: intervalMinutes,
		Status:          model.JobStatusRunning,
		StartTime:       now,
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		if isDuplicateKey(err) {
			return nil, dto.ErrDuplicateRunningJob
		}
		return nil, fmt.Errorf("failed to create monitoring job: %w", err)
	}

	if err := s.scheduler.RegisterJobTrigger(job.JobID, intervalMinutes, s.tickTrigger(job.JobID)); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Monitoring job started",
		logger.StringField("job_id", job.JobID),
		logger.StringField("stock_code", stockCode),
		logger.IntField("interval_minutes", intervalMinutes),
	)
	return job, nil
}

// StopJob is idempotent: stopping an already stopped job is a no-op.
func (s *monitoringService) StopJob(ctx context.Context, jobID string) error {
	job, err := s.jobRepo.FindByJobID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to find job %s: %w", jobID, err)
	}
	if job == nil {
		return dto.ErrJobNotFound
	}
	if job.IsTerminal() {
		return nil
	}
	return s.stopJob(ctx, job)
}

func (s *monitoringService) stopJob(ctx context.Context, job *model.MonitoringJob) error {
	s.scheduler.DeregisterJobTrigger(job.JobID)

	job.Status = model.JobStatusStopped
	job.PausedBy = sql.NullString{}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to stop job %s: %w", job.JobID, err)
	}

	s.log.InfoContext(ctx, "Monitoring job stopped", logger.StringField("job_id", job.JobID))
	return nil
}

func (s *monitoringService) PauseJob(ctx context.Context, jobID string) error {
	job, err := s.jobRepo.FindByJobID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to find job %s: %w", jobID, err)
	}
	if job == nil {
		return dto.ErrJobNotFound
	}
	return s.pauseJob(ctx, job, model.PausedByUser)
}

func (s *monitoringService) pauseJob(ctx context.Context, job *model.MonitoringJob, pausedBy string) error {
	if job.IsTerminal() {
		return dto.ErrInvalidJobState
	}
	if job.Status == model.JobStatusPaused {
		return nil
	}

	s.scheduler.DeregisterJobTrigger(job.JobID)

	job.Status = model.JobStatusPaused
	job.PausedBy = sql.NullString{String: pausedBy, Valid: true}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to pause job %s: %w", job.JobID, err)
	}

	s.log.InfoContext(ctx, "Monitoring job paused",
		logger.StringField("job_id", job.JobID),
		logger.StringField("paused_by", pausedBy),
	)
	return nil
}

// ResumeJob puts a paused job back to running with its original interval.
// Ticking restarts from now, not from the original schedule.
func (s *monitoringService) ResumeJob(ctx context.Context, jobID string) error {
	job, err := s.jobRepo.FindByJobID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to find job %s: %w", jobID, err)
	}
	if job == nil {
		return dto.ErrJobNotFound
	}
	return s.resumeJob(ctx, job)
}

func (s *monitoringService) resumeJob(ctx context.Context, job *model.MonitoringJob) error {
	if job.IsTerminal() {
		return dto.ErrInvalidJobState
	}
	if job.IsRunning() {
		return nil
	}

	job.Status = model.JobStatusRunning
	job.PausedBy = sql.NullString{}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to resume job %s: %w", job.JobID, err)
	}

	if err := s.scheduler.RegisterJobTrigger(job.JobID, job.IntervalMinutes, s.tickTrigger(job.JobID)); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "Monitoring job resumed", logger.StringField("job_id", job.JobID))
	return nil
}

func (s *monitoringService) GetJob(ctx context.Context, jobID string) (*model.MonitoringJob, error) {
	job, err := s.jobRepo.FindByJobID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, dto.ErrJobNotFound
	}
	return job, nil
}

func (s *monitoringService) ListJobs(ctx context.Context, param *model.GetMonitoringJobParam) ([]model.MonitoringJob, error) {
	return s.jobRepo.Get(ctx, param)
}

func (s *monitoringService) GetRecords(ctx context.Context, stockCode string, limit int) ([]model.MonitoringRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.recordRepo.FindByStockCode(ctx, stockCode, limit)
}

// tickTrigger wraps Tick with a trading-session gate so a job whose trigger
// fires on a weekend, during the midday halt, or after close does nothing.
func (s *monitoringService) tickTrigger(jobID string) func(context.Context) error {
	return func(tickCtx context.Context) error {
		now := utils.TimeNowMarket()
		if !utils.IsTradingDay(now) || utils.IsLunchBreak(now) || utils.IsAfterMarketClose(now) {
			s.log.DebugContext(tickCtx, "Tick outside trading session, skipped",
				logger.StringField("job_id", jobID),
			)
			return nil
		}
		return s.Tick(tickCtx, jobID)
	}
}

// Tick runs one analysis cycle for a job. Upstream failures are recorded in
// the job's last message and never change its status; the next scheduled
// firing retries naturally.
func (s *monitoringService) Tick(ctx context.Context, jobID string) error {
	job, err := s.jobRepo.FindByJobID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job == nil {
		// row is gone, drop the orphaned trigger
		s.scheduler.DeregisterJobTrigger(jobID)
		return nil
	}
	if !job.IsRunning() {
		s.log.DebugContext(ctx, "Tick skipped, job not running",
			logger.StringField("job_id", jobID),
			logger.StringField("status", string(job.Status)),
		)
		return nil
	}

	var flowInput dto.MoneyFlowWindow
	flow, err := s.moneyFlowRepo.GetMoneyFlow(ctx, job.StockCode)
	if err != nil {
		s.log.WarnContext(ctx, "Money flow unavailable, scoring without it",
			logger.StringField("stock_code", job.StockCode),
			logger.ErrorField(err),
		)
		flow = nil
	}
	if flow != nil {
		flowInput = *flow
	}
	score := analysis.ScoreMoneyFlow(flowInput)

	text, err := s.aiRepo.MonitorStock(ctx, job.StockCode, flow, score)
	if err != nil {
		s.recordTickFailure(ctx, job, err)
		return fmt.Errorf("tick failed for job %s: %w", jobID, err)
	}

	parsed := analysis.Parse(text)
	if empty := parsed.EmptyFieldCount(); empty > 0 {
		s.log.InfoContext(ctx, "Analysis parse degraded",
			logger.StringField("job_id", jobID),
			logger.IntField("empty_fields", empty),
		)
	}

	parsedJSON, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("failed to marshal parsed analysis: %w", err)
	}

	record := &model.MonitoringRecord{
		StockCode: job.StockCode,
		JobID:     job.JobID,
		Content:   text,
		Parsed:    parsedJSON,
	}
	if err := s.recordRepo.Create(ctx, record); err != nil {
		s.recordTickFailure(ctx, job, err)
		return fmt.Errorf("failed to persist monitoring record for job %s: %w", jobID, err)
	}

	now := utils.TimeNowMarket()
	job.LastRunTime = sql.NullTime{Time: now, Valid: true}
	job.LastMessage = sql.NullString{
		String: fmt.Sprintf("analysis completed, flow score %.1f", score),
		Valid:  true,
	}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to update job %s after tick: %w", jobID, err)
	}

	return nil
}

func (s *monitoringService) recordTickFailure(ctx context.Context, job *model.MonitoringJob, cause error) {
	if dto.IsTransientUpstream(cause) {
		s.log.WarnContext(ctx, "Transient upstream failure, job stays running",
			logger.StringField("job_id", job.JobID),
			logger.ErrorField(cause),
		)
	}

	job.LastMessage = sql.NullString{String: "analysis failed: " + cause.Error(), Valid: true}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		s.log.ErrorContext(ctx, "Failed to record tick failure",
			logger.StringField("job_id", job.JobID),
			logger.ErrorField(err),
		)
	}
}

// PauseAllJobs suspends every running job for the midday halt. Best effort
// per job; one failure never aborts the rest.
func (s *monitoringService) PauseAllJobs(ctx context.Context) error {
	jobs, err := s.jobRepo.Get(ctx, &model.GetMonitoringJobParam{
		Statuses: []model.MonitoringJobStatus{model.JobStatusRunning},
	})
	if err != nil {
		return fmt.Errorf("failed to list running jobs: %w", err)
	}

	s.forEachJob(ctx, jobs, "pause", func(job *model.MonitoringJob) error {
		return s.pauseJob(ctx, job, model.PausedByScheduler)
	})

	s.log.InfoContext(ctx, "Bulk pause completed", logger.IntField("jobs", len(jobs)))
	return nil
}

// ResumeAllJobs reactivates only the jobs the scheduler itself paused. Jobs
// paused explicitly by a user stay paused.
func (s *monitoringService) ResumeAllJobs(ctx context.Context) error {
	jobs, err := s.jobRepo.Get(ctx, &model.GetMonitoringJobParam{
		Statuses: []model.MonitoringJobStatus{model.JobStatusPaused},
		PausedBy: model.PausedByScheduler,
	})
	if err != nil {
		return fmt.Errorf("failed to list scheduler-paused jobs: %w", err)
	}

	s.forEachJob(ctx, jobs, "resume", func(job *model.MonitoringJob) error {
		return s.resumeJob(ctx, job)
	})

	s.log.InfoContext(ctx, "Bulk resume completed", logger.IntField("jobs", len(jobs)))
	return nil
}

// CleanupAllJobs stops every non-terminal job at market close.
func (s *monitoringService) CleanupAllJobs(ctx context.Context) error {
	jobs, err := s.jobRepo.Get(ctx, &model.GetMonitoringJobParam{
		Statuses: []model.MonitoringJobStatus{model.JobStatusRunning, model.JobStatusPaused},
	})
	if err != nil {
		return fmt.Errorf("failed to list active jobs: %w", err)
	}

	s.forEachJob(ctx, jobs, "cleanup", func(job *model.MonitoringJob) error {
		return s.stopJob(ctx, job)
	})

	s.log.InfoContext(ctx, "Market close cleanup completed", logger.IntField("jobs", len(jobs)))
	if len(jobs) > 0 {
		s.notifier.Send(ctx, fmt.Sprintf("Market closed: stopped %d monitoring job(s).", len(jobs)))
	}
	return nil
}

// RestoreJobs re-registers triggers for jobs that were running before a
// restart.
func (s *monitoringService) RestoreJobs(ctx context.Context) error {
	jobs, err := s.jobRepo.Get(ctx, &model.GetMonitoringJobParam{
		Statuses: []model.MonitoringJobStatus{model.JobStatusRunning},
	})
	if err != nil {
		return fmt.Errorf("failed to list jobs to restore: %w", err)
	}

	for i := range jobs {
		job := jobs[i]
		if err := s.scheduler.RegisterJobTrigger(job.JobID, job.IntervalMinutes, s.tickTrigger(job.JobID)); err != nil {
			s.log.ErrorContext(ctx, "Failed to restore job trigger",
				logger.StringField("job_id", job.JobID),
				logger.ErrorField(err),
			)
		}
	}

	s.log.InfoContext(ctx, "Restored monitoring jobs", logger.IntField("jobs", len(jobs)))
	return nil
}

func (s *monitoringService) forEachJob(ctx context.Context, jobs []model.MonitoringJob, op string, fn func(job *model.MonitoringJob) error) {
	g := errgroup.Group{}
	g.SetLimit(s.cfg.Scheduler.MaxConcurrency)

	for i := range jobs {
		job := jobs[i]
		g.Go(func() error {
			if !utils.ShouldContinue(ctx, s.log) {
				return nil
			}
			if err := fn(&job); err != nil {
				s.log.ErrorContext(ctx, "Bulk job operation failed",
					logger.StringField("operation", op),
					logger.StringField("job_id", job.JobID),
					logger.ErrorField(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key")
}
