package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/erp/billing/internal/infrastructure/config"
	"go.uber.org/zap"
)

// CronTriggerConfig holds configuration for the daily trigger
type CronTriggerConfig struct {
	// Hour and Minute of the daily run, local time
	Hour   int
	Minute int

	// CheckInterval is how often the clock is checked
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Hour:          6,
		Minute:        0,
		CheckInterval: time.Minute,
	}
}

// CronTriggerConfigFrom maps the application config onto the trigger
func CronTriggerConfigFrom(cfg config.SchedulerConfig) CronTriggerConfig {
	out := CronTriggerConfig{Hour: cfg.SweepHour, Minute: cfg.SweepMinute, CheckInterval: cfg.CheckInterval}
	if out.CheckInterval <= 0 {
		out.CheckInterval = time.Minute
	}
	return out
}

// CronTrigger submits one job of a kind per day once the configured time has passed
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	kind      JobKind
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger for kind
func NewCronTrigger(cfg CronTriggerConfig, scheduler *Scheduler, kind JobKind, logger *zap.Logger) *CronTrigger {
	return &CronTrigger{
		config:    cfg,
		scheduler: scheduler,
		kind:      kind,
		logger:    logger,
		now:       time.Now,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.String("kind", string(c.kind)),
		zap.Int("hour", c.config.Hour),
		zap.Int("minute", c.config.Minute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits the day's job once the run time has passed.
// A process started after the run time still runs that day.
func (c *CronTrigger) checkAndTrigger() bool {
	now := c.now()
	today := now.Format("2006-01-02")
	due := time.Date(now.Year(), now.Month(), now.Day(), c.config.Hour, c.config.Minute, 0, 0, now.Location())

	c.mu.Lock()
	if c.lastRunDate == today || now.Before(due) {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = today
	c.mu.Unlock()

	job, err := c.scheduler.SubmitNew(c.kind, "cron")
	if err != nil {
		c.logger.Error("Failed to submit scheduled job",
			zap.String("kind", string(c.kind)),
			zap.Error(err),
		)
		return false
	}
	c.logger.Info("Scheduled job submitted",
		zap.String("kind", string(c.kind)),
		zap.String("job_id", job.ID.String()),
	)
	return true
}

// TriggerNow submits a job immediately, independent of the daily schedule
func (c *CronTrigger) TriggerNow() (*Job, error) {
	return c.scheduler.SubmitNew(c.kind, "manual")
}
