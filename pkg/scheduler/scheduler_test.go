package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyunghoon/twasm/pkg/scheduler"
)

func TestRecurringSweep(t *testing.T) {
	sweeps := atomic.Int32{}
	sch := scheduler.New(scheduler.Options{
		Interval: time.Millisecond * 5,
		AutoRun:  true,
	})
	defer sch.Stop()

	err := sch.ScheduleTask("cache.load", scheduler.TaskOptions{
		Interval: time.Millisecond * 20,
		TaskFunc: func(_ context.Context) { sweeps.Add(1) },
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sch.TotalTasks())
	assert.True(t, sch.Running(), "AutoRun starts on first schedule")

	assert.Eventually(t, func() bool {
		return sweeps.Load() >= 3
	}, time.Second, time.Millisecond*5, "sweep keeps firing on its interval")
}

func TestScheduleValidation(t *testing.T) {
	sch := scheduler.New(scheduler.Options{
		Interval: time.Millisecond * 10,
		AutoRun:  true,
	})
	defer sch.Stop()

	err := sch.ScheduleTask("sweep", scheduler.TaskOptions{
		TaskFunc: func(_ context.Context) {},
	})
	assert.ErrorIs(t, err, scheduler.ErrIntervalNotSet)

	err = sch.ScheduleTask("sweep", scheduler.TaskOptions{
		Interval: time.Millisecond,
		TaskFunc: func(_ context.Context) {},
	})
	assert.ErrorIs(t, err, scheduler.ErrIntervalTooShort)

	err = sch.ScheduleTask("sweep", scheduler.TaskOptions{
		Interval: time.Millisecond * 10,
	})
	assert.ErrorIs(t, err, scheduler.ErrTaskFuncNotSet)
}

func TestScheduleOverwrite(t *testing.T) {
	sch := scheduler.New(scheduler.Options{
		Interval: time.Millisecond * 5,
		AutoRun:  true,
	})
	defer sch.Stop()

	firstRan := atomic.Bool{}
	secondRan := atomic.Bool{}
	err := sch.ScheduleTask("cache.load", scheduler.TaskOptions{
		Interval: time.Millisecond * 10,
		TaskFunc: func(_ context.Context) { firstRan.Store(true) },
	})
	require.NoError(t, err)

	err = sch.ScheduleTask("cache.load", scheduler.TaskOptions{
		Interval: time.Millisecond * 10,
		TaskFunc: func(_ context.Context) {},
	})
	assert.ErrorIs(t, err, scheduler.ErrTaskExists)

	err = sch.ScheduleTask("cache.load", scheduler.TaskOptions{
		Interval:  time.Millisecond * 10,
		Overwrite: true,
		TaskFunc:  func(_ context.Context) { secondRan.Store(true) },
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sch.TotalTasks())

	assert.Eventually(t, secondRan.Load, time.Second, time.Millisecond*5)
	assert.False(t, firstRan.Load(), "overwritten task never runs")
}

func TestStopTask(t *testing.T) {
	sch := scheduler.New(scheduler.Options{
		Interval: time.Millisecond * 5,
	})

	err := sch.ScheduleTask("cache.load", scheduler.TaskOptions{
		Interval: time.Millisecond * 10,
		TaskFunc: func(_ context.Context) {},
	})
	assert.ErrorIs(t, err, scheduler.ErrNotRunning, "AutoRun off requires Start")

	require.NoError(t, sch.Start())
	assert.ErrorIs(t, sch.Start(), scheduler.ErrAlreadyRunning)
	defer sch.Stop()

	runs := atomic.Int32{}
	err = sch.ScheduleTask("cache.load", scheduler.TaskOptions{
		Interval: time.Millisecond * 10,
		TaskFunc: func(_ context.Context) { runs.Add(1) },
	})
	require.NoError(t, err)

	require.NoError(t, sch.StopTask("cache.load"))
	assert.Equal(t, 0, sch.TotalTasks())
	assert.ErrorIs(t, sch.StopTask("cache.load"), scheduler.ErrTaskNotFound)

	// a stopped task's queued run is discarded, not executed
	stopped := runs.Load()
	time.Sleep(time.Millisecond * 40)
	assert.Equal(t, stopped, runs.Load())
}

func TestTaskPanicDoesNotKillScheduler(t *testing.T) {
	sch := scheduler.New(scheduler.Options{
		Interval: time.Millisecond * 5,
		AutoRun:  true,
	})
	defer sch.Stop()

	healthy := atomic.Int32{}
	require.NoError(t, sch.ScheduleTask("bad", scheduler.TaskOptions{
		Interval: time.Millisecond * 10,
		TaskFunc: func(_ context.Context) { panic("sweep blew up") },
	}))
	require.NoError(t, sch.ScheduleTask("good", scheduler.TaskOptions{
		Interval: time.Millisecond * 10,
		TaskFunc: func(_ context.Context) { healthy.Add(1) },
	}))

	assert.Eventually(t, func() bool {
		return healthy.Load() >= 2
	}, time.Second, time.Millisecond*5, "other tasks keep running past a panic")
}
