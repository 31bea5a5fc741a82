package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCronTrigger_RunsOncePerDayAfterDueTime(t *testing.T) {
	executed := make(chan struct{}, 4)
	s := startScheduler(t, testConfig(), JobExecutorFunc(func(context.Context, *Job) error {
		executed <- struct{}{}
		return nil
	}))
	trigger := NewCronTrigger(CronTriggerConfig{Hour: 6, Minute: 30, CheckInterval: time.Minute}, s, JobKindDunningSweep, zap.NewNop())

	clock := time.Date(2026, 10, 15, 6, 29, 0, 0, time.Local)
	trigger.now = func() time.Time { return clock }

	assert.False(t, trigger.checkAndTrigger(), "before due time")

	clock = clock.Add(time.Minute)
	assert.True(t, trigger.checkAndTrigger())

	clock = clock.Add(3 * time.Hour)
	assert.False(t, trigger.checkAndTrigger(), "already ran today")

	clock = time.Date(2026, 10, 16, 9, 0, 0, 0, time.Local)
	assert.True(t, trigger.checkAndTrigger(), "late start still runs")

	for i := 0; i < 2; i++ {
		select {
		case <-executed:
		case <-time.After(time.Second):
			t.Fatal("sweep job not executed")
		}
	}
}

func TestCronTrigger_TriggerNow(t *testing.T) {
	s := startScheduler(t, testConfig(), JobExecutorFunc(func(context.Context, *Job) error { return nil }))
	trigger := NewCronTrigger(DefaultCronTriggerConfig(), s, JobKindDunningSweep, zap.NewNop())

	job, err := trigger.TriggerNow()
	require.NoError(t, err)
	assert.Equal(t, "manual", job.Trigger)
}

func TestCronTrigger_StartStop(t *testing.T) {
	s := startScheduler(t, testConfig(), JobExecutorFunc(func(context.Context, *Job) error { return nil }))
	trigger := NewCronTrigger(CronTriggerConfigFrom(config.SchedulerConfig{SweepHour: 5}), s, JobKindDunningSweep, zap.NewNop())

	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Stop(context.Background()))
	require.NoError(t, trigger.Stop(context.Background()))
}
