// Package scheduler runs periodic jobs on a seconds-resolution cron.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/bondmaster/backend/internal/metrics"
	"github.com/wonny/bondmaster/backend/pkg/config"
	"github.com/wonny/bondmaster/backend/pkg/logger"
)

// Scheduler manages scheduled jobs
// ⭐ SSOT: 주기 작업 등록/실행은 여기서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	jobs    map[string]Job
	entries map[string]cron.EntryID
	history map[string]*JobHistory

	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler. m may be nil.
func New(cfg config.SchedulerConfig, log *logger.Logger, m *metrics.Metrics) *Scheduler {
	log = log.Component("scheduler")
	ctx, cancel := context.WithCancel(context.Background())

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})),
		),
		logger:     log,
		metrics:    m,
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		history:    make(map[string]*JobHistory),
		maxRetries: maxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.JobTimeout,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// AddJob registers a job under its cron schedule
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(s.ctx, job)
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.entries[name] = id
	s.history[name] = &JobHistory{JobName: name}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job registered")

	return nil
}

// RemoveJob unregisters a job; its history is kept
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.entries[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(id)
	delete(s.jobs, name)
	delete(s.entries, name)

	s.logger.WithField("job", name).Info("Job removed")
	return nil
}

// Start begins firing registered jobs
func (s *Scheduler) Start() {
	s.mu.RLock()
	n := len(s.jobs)
	s.mu.RUnlock()

	s.logger.WithField("jobs", n).Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels in-flight runs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunJob runs a registered job once, outside its schedule
func (s *Scheduler) RunJob(ctx context.Context, name string) (JobResult, error) {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return JobResult{}, fmt.Errorf("job %s not found", name)
	}

	return s.runJob(ctx, job), nil
}

// runJob executes a job with timeout and retries, then records the result
func (s *Scheduler) runJob(ctx context.Context, job Job) JobResult {
	name := job.Name()
	log := s.logger.WithField("job", name)

	result := JobResult{JobName: name, StartTime: time.Now()}

	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		result.Attempts = attempt + 1

		err = s.attempt(ctx, job)
		if err == nil || IsPermanent(err) || ctx.Err() != nil || attempt == s.maxRetries {
			break
		}

		log.WithError(err).WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   s.retryDelay.String(),
		}).Warn("Job failed, retrying")

		select {
		case <-ctx.Done():
		case <-time.After(s.retryDelay):
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
		log.WithError(err).WithField("attempts", result.Attempts).Error("Job failed")
	} else {
		log.WithField("duration", result.Duration.String()).Info("Job completed")
	}

	s.metrics.ObserveJob(name, result.Success)

	s.mu.Lock()
	if h, ok := s.history[name]; ok {
		h.AddResult(result)
	}
	s.mu.Unlock()

	return result
}

func (s *Scheduler) attempt(ctx context.Context, job Job) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return job.Run(ctx)
}

// History returns up to n results of a job, newest first
func (s *Scheduler) History(name string, n int) ([]JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, exists := s.history[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}
	return h.Latest(n), nil
}

// JobInfo describes a registered job
type JobInfo struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Next        time.Time  `json:"next"`
	SuccessRate float64    `json:"successRate"`
	LastRun     *JobResult `json:"lastRun,omitempty"`
}

// Jobs lists registered jobs sorted by name
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, job := range s.jobs {
		info := JobInfo{
			Name:     name,
			Schedule: job.Schedule(),
			Next:     s.cron.Entry(s.entries[name]).Next,
		}
		if h := s.history[name]; h != nil {
			info.SuccessRate = h.SuccessRate()
			if latest := h.Latest(1); len(latest) == 1 {
				last := latest[0]
				info.LastRun = &last
			}
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// cronLogger adapts the logger to cron.Logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(kvFields(keysAndValues)).Error(msg)
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
