package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang-stock-analysis/config"
	"golang-stock-analysis/pkg/logger"

	"github.com/robfig/cron/v3"
)

// TriggerFunc is one unit of scheduled work. The context carries the
// trigger's execution timeout.
type TriggerFunc func(ctx context.Context) error

// TriggerScheduler is the process-wide timer facility. Fixed wall-clock
// triggers fire on cron expressions in the market time zone; per-job triggers
// fire on a minute interval and are registered and removed as monitoring
// jobs change state. All work runs on a bounded pool, and a trigger whose
// previous run is still executing is skipped, not queued.
type TriggerScheduler struct {
	cfg       *config.Config
	log       *logger.Logger
	cron      *cron.Cron
	semaphore chan struct{}
	wg        sync.WaitGroup
	inFlight  sync.Map

	mu         sync.Mutex
	jobEntries map[string]cron.EntryID
}

func NewTriggerScheduler(cfg *config.Config, log *logger.Logger) (*TriggerScheduler, error) {
	loc, err := time.LoadLocation(cfg.Scheduler.MarketTimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid market time zone %q: %w", cfg.Scheduler.MarketTimeZone, err)
	}

	return &TriggerScheduler{
		cfg:        cfg,
		log:        log,
		cron:       cron.New(cron.WithLocation(loc)),
		semaphore:  make(chan struct{}, cfg.Scheduler.MaxConcurrency),
		jobEntries: make(map[string]cron.EntryID),
	}, nil
}

// RegisterFixedTrigger adds a named wall-clock trigger from a five-field cron
// expression.
func (s *TriggerScheduler) RegisterFixedTrigger(name, spec string, timeout time.Duration, fn TriggerFunc) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.dispatch(name, timeout, fn)
	})
	if err != nil {
		return fmt.Errorf("failed to register trigger %s (%s): %w", name, spec, err)
	}

	s.log.Info("Registered fixed trigger",
		logger.StringField("trigger", name),
		logger.StringField("cron", spec),
	)
	return nil
}

// RegisterJobTrigger adds a recurring interval trigger for one monitoring
// job. Re-registering the same job id first drops the old entry.
func (s *TriggerScheduler) RegisterJobTrigger(jobID string, intervalMinutes int, fn TriggerFunc) error {
	if intervalMinutes <= 0 {
		return fmt.Errorf("invalid interval %d for job %s", intervalMinutes, jobID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.jobEntries[jobID]; ok {
		s.cron.Remove(entryID)
	}

	name := "job:" + jobID
	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %dm", intervalMinutes), func() {
		s.dispatch(name, s.cfg.Scheduler.TickTimeout, fn)
	})
	if err != nil {
		return fmt.Errorf("failed to register job trigger %s: %w", jobID, err)
	}
	s.jobEntries[jobID] = entryID

	s.log.Info("Registered job trigger",
		logger.StringField("job_id", jobID),
		logger.IntField("interval_minutes", intervalMinutes),
	)
	return nil
}

// DeregisterJobTrigger removes a job's interval trigger. Unknown ids are a
// no-op.
func (s *TriggerScheduler) DeregisterJobTrigger(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.jobEntries[jobID]
	if !ok {
		return
	}
	s.cron.Remove(entryID)
	delete(s.jobEntries, jobID)

	s.log.Info("Deregistered job trigger", logger.StringField("job_id", jobID))
}

func (s *TriggerScheduler) HasJobTrigger(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobEntries[jobID]
	return ok
}

// dispatch runs one trigger firing on the bounded pool. A firing that
// overlaps the previous run of the same trigger is dropped.
func (s *TriggerScheduler) dispatch(name string, timeout time.Duration, fn TriggerFunc) {
	if _, running := s.inFlight.LoadOrStore(name, struct{}{}); running {
		s.log.Debug("Trigger still running, firing skipped", logger.StringField("trigger", name))
		return
	}

	s.wg.Add(1)
	s.semaphore <- struct{}{}

	defer func() {
		<-s.semaphore
		s.inFlight.Delete(name)
		s.wg.Done()

		if r := recover(); r != nil {
			s.log.Error("Trigger panicked",
				logger.StringField("trigger", name),
				logger.Field("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.log.ErrorContext(ctx, "Trigger execution failed",
			logger.StringField("trigger", name),
			logger.ErrorField(err),
		)
		return
	}

	s.log.Debug("Trigger executed",
		logger.StringField("trigger", name),
		logger.Field("duration", time.Since(start)),
	)
}

func (s *TriggerScheduler) Start() {
	s.cron.Start()
	s.log.Info("Trigger scheduler started",
		logger.IntField("max_concurrency", s.cfg.Scheduler.MaxConcurrency),
		logger.IntField("entries", len(s.cron.Entries())),
	)
}

// Stop stops firing new triggers and gives in-flight work a bounded grace
// period before returning.
func (s *TriggerScheduler) Stop() {
	stopCtx := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-stopCtx.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("Trigger scheduler drained")
	case <-time.After(s.cfg.Scheduler.ShutdownGrace):
		s.log.Warn("Trigger scheduler shutdown grace elapsed, abandoning in-flight work")
	}
}
