package finance

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

const sweepLockKey = "dunning:sweep"

// Sweeper runs one dunning sweep
type Sweeper interface {
	Sweep(ctx context.Context) (*SweepReport, error)
}

// SweepJob runs the dunning sweep as a scheduler job. The sweep holds a named lock
// so that only one process sweeps at a time; a node that finds the lock taken skips.
type SweepJob struct {
	sweeper Sweeper
	locker  shared.Locker
	logger  *zap.Logger
}

// NewSweepJob creates a new SweepJob. locker may be nil for single-process setups.
func NewSweepJob(sweeper Sweeper, locker shared.Locker, logger *zap.Logger) *SweepJob {
	return &SweepJob{sweeper: sweeper, locker: locker, logger: logger}
}

// ErrSweepInProgress is returned by Run while another sweep holds the lock
var ErrSweepInProgress = shared.NewConflictError("a dunning sweep is already running")

// Execute implements scheduler.JobExecutor. A sweep running elsewhere is not a failure.
func (j *SweepJob) Execute(ctx context.Context, job *scheduler.Job) error {
	report, busy, err := j.run(ctx)
	if busy {
		j.logger.Info("dunning sweep already running elsewhere",
			zap.String("job_id", job.ID.String()))
		return nil
	}
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		j.logger.Warn("dunning sweep finished with failures",
			zap.String("job_id", job.ID.String()),
			zap.String("trigger", job.Trigger),
			zap.Int("failed", report.Failed))
	}
	return nil
}

// Run sweeps once under the lock and returns the report
func (j *SweepJob) Run(ctx context.Context) (*SweepReport, error) {
	report, busy, err := j.run(ctx)
	if busy {
		return nil, ErrSweepInProgress
	}
	return report, err
}

func (j *SweepJob) run(ctx context.Context) (report *SweepReport, busy bool, err error) {
	if j.locker != nil {
		lock, err := j.locker.Acquire(ctx, sweepLockKey, 0)
		if errors.Is(err, shared.ErrLockUnavailable) {
			return nil, true, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("acquire sweep lock: %w", err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				j.logger.Warn("release sweep lock", zap.Error(err))
			}
		}()
	}

	report, err = j.sweeper.Sweep(ctx)
	return report, false, err
}

var _ scheduler.JobExecutor = (*SweepJob)(nil)
