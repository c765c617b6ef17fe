package service

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang-stock-analysis/config"
	"golang-stock-analysis/internal/dto"
	"golang-stock-analysis/internal/model"
	"golang-stock-analysis/pkg/logger"
	"golang-stock-analysis/pkg/telegram"
	"golang-stock-analysis/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.MonitoringJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*model.MonitoringJob)}
}

func (f *fakeJobRepo) Create(ctx context.Context, job *model.MonitoringJob, opts ...utils.DBOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *job
	f.jobs[job.JobID] = &copied
	return nil
}

func (f *fakeJobRepo) Update(ctx context.Context, job *model.MonitoringJob, opts ...utils.DBOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *job
	f.jobs[job.JobID] = &copied
	return nil
}

func (f *fakeJobRepo) Get(ctx context.Context, param *model.GetMonitoringJobParam, opts ...utils.DBOption) ([]model.MonitoringJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MonitoringJob
	for _, job := range f.jobs {
		if param.JobID != "" && job.JobID != param.JobID {
			continue
		}
		if param.StockCode != "" && job.StockCode != param.StockCode {
			continue
		}
		if len(param.Statuses) > 0 && !containsStatus(param.Statuses, job.Status) {
			continue
		}
		if param.PausedBy != "" && (!job.PausedBy.Valid || job.PausedBy.String != param.PausedBy) {
			continue
		}
		out = append(out, *job)
	}
	return out, nil
}

func (f *fakeJobRepo) FindByJobID(ctx context.Context, jobID string, opts ...utils.DBOption) (*model.MonitoringJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobRepo) CountByStatus(ctx context.Context) (map[model.MonitoringJobStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[model.MonitoringJobStatus]int64)
	for _, job := range f.jobs {
		counts[job.Status]++
	}
	return counts, nil
}

func (f *fakeJobRepo) DeleteStoppedOlderThan(ctx context.Context, cutoff time.Time, opts ...utils.DBOption) (int64, error) {
	return 0, nil
}

func containsStatus(statuses []model.MonitoringJobStatus, status model.MonitoringJobStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeRecordRepo struct {
	mu      sync.Mutex
	records []model.MonitoringRecord
}

func (f *fakeRecordRepo) Create(ctx context.Context, record *model.MonitoringRecord, opts ...utils.DBOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeRecordRepo) FindByStockCode(ctx context.Context, stockCode string, limit int) ([]model.MonitoringRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MonitoringRecord
	for _, r := range f.records {
		if r.StockCode == stockCode {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.records)), nil
}

func (f *fakeRecordRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time, opts ...utils.DBOption) (int64, error) {
	return 0, nil
}

func (f *fakeRecordRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeMoneyFlowRepo struct {
	flow *dto.MoneyFlowWindow
	err  error
}

func (f *fakeMoneyFlowRepo) GetMoneyFlow(ctx context.Context, stockCode string) (*dto.MoneyFlowWindow, error) {
	return f.flow, f.err
}

type fakeAIRepo struct {
	monitorText string
	monitorErr  error
	delay       time.Duration
	calls       int32

	pickResp *dto.AIStockPickResponse
	pickRaw  json.RawMessage
	pickErr  error
}

func (f *fakeAIRepo) PickDailyStocks(ctx context.Context, date string) (*dto.AIStockPickResponse, json.RawMessage, error) {
	return f.pickResp, f.pickRaw, f.pickErr
}

func (f *fakeAIRepo) MonitorStock(ctx context.Context, stockCode string, flow *dto.MoneyFlowWindow, flowScore float64) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.monitorText, f.monitorErr
}

type monitoringFixture struct {
	svc        MonitoringService
	jobRepo    *fakeJobRepo
	recordRepo *fakeRecordRepo
	aiRepo     *fakeAIRepo
	scheduler  *TriggerScheduler
}

func newMonitoringFixture(t *testing.T) *monitoringFixture {
	t.Helper()

	log, err := logger.New("error", "console")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Scheduler.MarketTimeZone = "Asia/Shanghai"
	cfg.Scheduler.MaxConcurrency = 3
	cfg.Scheduler.TickTimeout = time.Minute
	cfg.Scheduler.ShutdownGrace = time.Second

	scheduler, err := NewTriggerScheduler(cfg, log)
	require.NoError(t, err)

	notifier, err := telegram.NewNotifier(&cfg.Telegram, log)
	require.NoError(t, err)

	jobRepo := newFakeJobRepo()
	recordRepo := &fakeRecordRepo{}
	aiRepo := &fakeAIRepo{monitorText: "1. Trend Analysis: up.\n2. Trading Advice: hold."}

	svc := NewMonitoringService(cfg, log, jobRepo, recordRepo, &fakeMoneyFlowRepo{}, aiRepo, scheduler, notifier)
	return &monitoringFixture{
		svc:        svc,
		jobRepo:    jobRepo,
		recordRepo: recordRepo,
		aiRepo:     aiRepo,
		scheduler:  scheduler,
	}
}

func TestMonitoringService_StartJob(t *testing.T) {
	fx := newMonitoringFixture(t)
	ctx := context.Background()

	job, err := fx.svc.StartJob(ctx, "600000", 5)
	require.NoError(t, err)
	assert.Equal(t, "600000", job.StockCode)
	assert.Equal(t, model.JobStatusRunning, job.Status)
	assert.Equal(t, 5, job.IntervalMinutes)
	assert.Contains(t, job.JobID, "monitor_600000_")
	assert.True(t, fx.scheduler.HasJobTrigger(job.JobID))
}

func TestMonitoringService_StartJob_DuplicateRunning(t *testing.T) {
	fx := newMonitoringFixture(t)
	ctx := context.Background()

	_, err := fx.svc.StartJob(ctx, "600000", 5)
	require.NoError(t, err)

	_, err = fx.svc.StartJob(ctx, "600000", 10)
	assert.ErrorIs(t, err, dto.ErrDuplicateRunningJob)

	// a different stock is unaffected
	_, err = fx.svc.StartJob(ctx, "000001", 5)
	assert.NoError(t, err)
}

func TestMonitoringService_StartJob_InvalidInput(t *testing.T) {
	fx := newMonitoringFixture(t)
	ctx := context.Background()

	_, err := fx.svc.StartJob(ctx, "", 5)
	assert.Error(t, err)

	_, err = fx.svc.StartJob(ctx, "600000", 0)
	assert.Error(t, err)
}

func TestMonitoringService_StopJob_Idempotent(t *testing.T) {
	fx := newMonitoringFixture(t)
	ctx := context.Background()

	job, err := fx.svc.StartJob(ctx, "600000", 5)
	require.NoError(t, err)

	require.NoError(t, fx.svc.StopJob(ctx, job.JobID))
	assert.False(t, fx.scheduler.HasJobTrigger(job.JobID))

	// second stop is a no-op, not an error
	require.NoError(t, fx.svc.StopJob(ctx, job.JobID))

	stopped, err := fx.svc.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusStopped, stopped.Status)
}

func TestMonitoringService_StopJob_NotFound(t *testing.T) {
	fx := newMonitoringFixture(t)

	err := fx.svc.StopJob(context.Background(), "monitor_999999_0")
	assert.ErrorIs(t, err, dto.ErrJobNotFound)
}

func TestMonitoringService_PauseResume(t *testing.T) {
	fx := newMonitoringFixture(t)
	ctx := context.Background()

	job, err := fx.svc.StartJob(ctx, "600000", 7)
	require.NoError(t, err)

	require.NoError(t, fx.svc.PauseJob(ctx, job.JobID))
	assert.False(t, fx.scheduler.HasJobTrigger(job.JobID))

	paused, err := fx.svc.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPaused, paused.Status)
	assert.Equal(t, model.PausedByUser, paused.PausedBy.String)

	require.NoError(t, fx.svc.ResumeJob(ctx, job.JobID))
	resumed, err := fx.svc.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, resumed.Status)
	assert.Equal(t, 7, resumed.IntervalMinutes)
	assert.False(t, resumed.PausedBy.Valid)
	assert.True(t, fx.scheduler.HasJobTrigger(job.JobID))
}

func TestMonitoringService_PauseStopped(t *testing.T) {
	fx := newMonitoringFixture(t)
	ctx := context.Background()

	job, err := fx.svc.StartJob(ctx, "600000", 5)
	require.NoError(t, err)
	require.NoError(t, fx.svc.StopJob(ctx, job.JobID))

	assert.ErrorIs(t, fx.svc.PauseJob(ctx, job.JobID), dto.ErrInvalidJobState)
	assert.ErrorIs(t, fx.svc.ResumeJob(ctx, job.JobID), dto.ErrInvalidJobState)
}

func TestMonitoringService_Tick(t *testing.T) {
	fx := newMonitoringFixture(t)
	ctx := context.Background()

	job, err := fx.svc.StartJob(ctx, "600000", 5)
	require.NoError(t, err)

	require.NoError(t, fx.svc.Tick(ctx, job.JobID))

	assert.Equal(t, 1, fx.recordRepo.count())
	updated, err := fx.svc.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.True(t, updated.LastRunTime.Valid)
	assert.Contains(t, updated.LastMessage.String, "analysis completed")
}

func TestMonitoringService_Tick_NotRunning(t *testing.T) {
	fx := newMonitoringFixture(t)
	ctx := context.Background()

	job, err := fx.svc.StartJob(ctx, "600000", 5)
	require.NoError(t, err)
	require.NoError(t, fx.svc.PauseJob(ctx, job.JobID))

	require.NoError(t, fx.svc.Tick(ctx, job.JobID))
	assert.Equal(t, 0, fx.recordRepo.count())
}

func TestMonitoringService_Tick_UpstreamFailureKeepsRunning(t *testing.T) {
	fx := newMonitoringFixture(t)
	ctx := context.Background()

	job, err := fx.svc.StartJob(ctx, "600000", 5)
	require.NoError(t, err)

	fx.aiRepo.monitorErr = dto.NewUpstreamError(dto.UpstreamTimeout, context.DeadlineExceeded)
	err = fx.svc.Tick(ctx, job.JobID)
	assert.Error(t, err)

	after, err := fx.svc.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, after.Status)
	assert.Contains(t, after.LastMessage.String, "analysis failed")
	assert.Equal(t, 0, fx.recordRepo.count())
}

func TestMonitoringService_BulkPauseResume(t *testing.T) {
	fx := newMonitoringFixture(t)
	ctx := context.Background()

	running, err := fx.svc.StartJob(ctx, "600000", 5)
	require.NoError(t, err)
	userPaused, err := fx.svc.StartJob(ctx, "000001", 5)
	require.NoError(t, err)
	require.NoError(t, fx.svc.PauseJob(ctx, userPaused.JobID))

	require.NoError(t, fx.svc.PauseAllJobs(ctx))

	schedPaused, err := fx.svc.GetJob(ctx, running.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPaused, schedPaused.Status)
	assert.Equal(t, model.PausedByScheduler, schedPaused.PausedBy.String)

	require.NoError(t, fx.svc.ResumeAllJobs(ctx))

	resumed, err := fx.svc.GetJob(ctx, running.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, resumed.Status)

	// a user-paused job never comes back on the bulk resume
	stillPaused, err := fx.svc.GetJob(ctx, userPaused.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPaused, stillPaused.Status)
}

func TestMonitoringService_CleanupAllJobs(t *testing.T) {
	fx := newMonitoringFixture(t)
	ctx := context.Background()

	first, err := fx.svc.StartJob(ctx, "600000", 5)
	require.NoError(t, err)
	second, err := fx.svc.StartJob(ctx, "000001", 5)
	require.NoError(t, err)
	require.NoError(t, fx.svc.PauseJob(ctx, second.JobID))

	require.NoError(t, fx.svc.CleanupAllJobs(ctx))

	for _, jobID := range []string{first.JobID, second.JobID} {
		job, err := fx.svc.GetJob(ctx, jobID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusStopped, job.Status)
		assert.False(t, fx.scheduler.HasJobTrigger(jobID))
	}
}

func TestMonitoringService_RestoreJobs(t *testing.T) {
	fx := newMonitoringFixture(t)
	ctx := context.Background()

	// simulate a job row surviving a restart
	require.NoError(t, fx.jobRepo.Create(ctx, &model.MonitoringJob{
		JobID:           "monitor_600000_1",
		StockCode:       "600000",
		IntervalMinutes: 5,
		Status:          model.JobStatusRunning,
		StartTime:       utils.TimeNowMarket(),
	}))

	require.NoError(t, fx.svc.RestoreJobs(ctx))
	assert.True(t, fx.scheduler.HasJobTrigger("monitor_600000_1"))
}
