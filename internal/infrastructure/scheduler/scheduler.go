package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobKind names the work a job performs
type JobKind string

const (
	// JobKindDunningSweep runs the dunning engine over all overdue invoices
	JobKindDunningSweep JobKind = "DUNNING_SWEEP"
)

// Job is one unit of background work
type Job struct {
	ID          uuid.UUID
	Kind        JobKind
	Trigger     string // cron, manual
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
}

// NewJob creates a pending job
func NewJob(kind JobKind, trigger string, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Kind:       kind,
		Trigger:    trigger,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// JobExecutor runs jobs of the kinds it was registered for
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobExecutorFunc adapts a function to JobExecutor
type JobExecutorFunc func(ctx context.Context, job *Job) error

// Execute implements JobExecutor
func (f JobExecutorFunc) Execute(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// SchedulerConfig holds worker pool configuration
type SchedulerConfig struct {
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	QueueSize         int
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxConcurrentJobs: 1,
		JobTimeout:        30 * time.Minute,
		RetryAttempts:     2,
		RetryDelay:        5 * time.Minute,
		QueueSize:         16,
	}
}

// SchedulerConfigFrom maps the application config onto the worker pool
func SchedulerConfigFrom(cfg config.SchedulerConfig) SchedulerConfig {
	out := DefaultSchedulerConfig()
	if cfg.MaxConcurrentJobs > 0 {
		out.MaxConcurrentJobs = cfg.MaxConcurrentJobs
	}
	if cfg.JobTimeout > 0 {
		out.JobTimeout = cfg.JobTimeout
	}
	if cfg.RetryAttempts >= 0 {
		out.RetryAttempts = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		out.RetryDelay = cfg.RetryDelay
	}
	return out
}

// Validate checks the configuration
func (c SchedulerConfig) Validate() error {
	if c.MaxConcurrentJobs < 1 || c.QueueSize < 1 || c.JobTimeout <= 0 {
		return fmt.Errorf("%w: workers=%d queue=%d timeout=%s",
			ErrInvalidConfig, c.MaxConcurrentJobs, c.QueueSize, c.JobTimeout)
	}
	return nil
}

// Scheduler runs submitted jobs on a fixed pool of workers
type Scheduler struct {
	config    SchedulerConfig
	executors map[JobKind]JobExecutor
	logger    *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	retries   map[uuid.UUID]*time.Timer
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg SchedulerConfig, logger *zap.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		config:    cfg,
		executors: make(map[JobKind]JobExecutor),
		logger:    logger,
		retries:   make(map[uuid.UUID]*time.Timer),
	}, nil
}

// Register sets the executor for kind. Must be called before Start.
func (s *Scheduler) Register(kind JobKind, executor JobExecutor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executors[kind] = executor
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true
	s.jobs = make(chan *Job, s.config.QueueSize)

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	for id, t := range s.retries {
		t.Stop()
		delete(s.retries, id)
	}
	s.cancel()
	close(s.jobs)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues job without blocking
func (s *Scheduler) Submit(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- job:
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Kind)),
			zap.String("trigger", job.Trigger),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// SubmitNew creates and queues a job of kind
func (s *Scheduler) SubmitNew(kind JobKind, trigger string) (*Job, error) {
	job := NewJob(kind, trigger, s.config.RetryAttempts)
	return job, s.Submit(job)
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	s.mu.Lock()
	executor, ok := s.executors[job.Kind]
	s.mu.Unlock()
	if !ok {
		job.Fail("no executor registered")
		s.logger.Error("Job has no executor",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Kind)),
		)
		return
	}

	job.Start()
	s.logger.Info("Processing job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Kind)),
		zap.Int("attempt", job.RetryCount+1),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	if err := executor.Execute(jobCtx, job); err != nil {
		job.Fail(err.Error())
		s.logger.Error("Job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Kind)),
			zap.Error(err),
		)
		if job.ShouldRetry() && ctx.Err() == nil {
			s.scheduleRetry(job)
		}
		return
	}

	job.Complete()
	s.logger.Info("Job completed successfully",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(job.Kind)),
		zap.Duration("elapsed", job.CompletedAt.Sub(*job.StartedAt)),
	)
}

func (s *Scheduler) scheduleRetry(job *Job) {
	job.RetryCount++
	job.Status = JobStatusPending

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.retries[job.ID] = time.AfterFunc(s.config.RetryDelay, func() {
		s.mu.Lock()
		delete(s.retries, job.ID)
		s.mu.Unlock()
		if err := s.Submit(job); err != nil {
			s.logger.Warn("Failed to re-queue job for retry",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
	})
	s.logger.Info("Job scheduled for retry",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Duration("delay", s.config.RetryDelay),
	)
}
