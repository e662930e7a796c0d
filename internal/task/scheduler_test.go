package task_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/esmailgumaan/contact_svc/internal/task"
)

func TestSchedulerRunsOnInterval(t *testing.T) {
	var runCount atomic.Int64
	scheduler := task.NewScheduler(10*time.Millisecond, func(context.Context) {
		runCount.Add(1)
	})

	scheduler.Start(context.Background())
	defer scheduler.Stop()

	require.Eventually(t, func() bool {
		return runCount.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerTriggerRunsImmediately(t *testing.T) {
	var runCount atomic.Int64
	scheduler := task.NewScheduler(time.Hour, func(context.Context) {
		runCount.Add(1)
	})

	scheduler.Start(context.Background())
	defer scheduler.Stop()

	scheduler.Trigger()
	require.Eventually(t, func() bool {
		return runCount.Load() >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerStopPreventsFurtherRuns(t *testing.T) {
	var runCount atomic.Int64
	scheduler := task.NewScheduler(5*time.Millisecond, func(context.Context) {
		runCount.Add(1)
	})

	scheduler.Start(context.Background())
	require.Eventually(t, func() bool {
		return runCount.Load() >= 1
	}, time.Second, time.Millisecond)

	scheduler.Stop()
	countAfterStop := runCount.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, countAfterStop, runCount.Load())
}

func TestSchedulerStartTwiceIsNoOp(t *testing.T) {
	scheduler := task.NewScheduler(time.Hour, func(context.Context) {})
	scheduler.Start(context.Background())
	scheduler.Start(context.Background())
	scheduler.Stop()
}
