// Package scheduler runs named recurring tasks on a shared ticker.
// The cache registers one expiry sweep per bucket; the tick interval
// bounds how stale a swept bucket can get.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kyunghoon/twasm/pkg/util/heap"
)

type TaskFunc func(context.Context)

type Options struct {
	// Interval is the tick resolution. Task intervals shorter than
	// this cannot be honored.
	Interval time.Duration
	Logger   *zap.Logger
	// AutoRun starts the scheduler on the first ScheduleTask call
	// instead of requiring an explicit Start.
	AutoRun bool
}

type TaskOptions struct {
	// Interval is the time between runs.
	Interval time.Duration
	// Overwrite replaces an existing task under the same name and
	// resets its timer. Without it, scheduling a taken name fails.
	Overwrite bool
	TaskFunc  TaskFunc
}

type Scheduler interface {
	Start() error
	Stop()
	Running() bool
	ScheduleTask(name string, opts TaskOptions) error
	StopTask(name string) error
	TotalTasks() int
}

var (
	ErrTaskExists       = errors.New("scheduler: task already exists")
	ErrTaskNotFound     = errors.New("scheduler: task not found")
	ErrIntervalNotSet   = errors.New("scheduler: task interval must be set")
	ErrIntervalTooShort = errors.New("scheduler: task interval is shorter than the tick interval")
	ErrTaskFuncNotSet   = errors.New("scheduler: task func must be set")
	ErrAlreadyRunning   = errors.New("scheduler: already running")
	ErrNotRunning       = errors.New("scheduler: not running")
)

type task struct {
	name     string
	interval time.Duration
	fn       TaskFunc
	ctx      context.Context
	cancel   context.CancelFunc
}

type scheduler struct {
	opts    Options
	logger  *zap.Logger
	mu      sync.Mutex
	tasks   map[string]*task
	queue   *heap.Heap[int64, *task]
	cancel  context.CancelFunc
	running bool
}

func New(opts Options) Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &scheduler{
		opts:   opts,
		logger: opts.Logger,
		tasks:  make(map[string]*task),
		queue:  heap.New[int64, *task](),
	}
}

func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.start()
	return nil
}

// start requires s.mu held.
func (s *scheduler) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	go s.loop(ctx)
}

func (s *scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	s.running = false
}

func (s *scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *scheduler) loop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.runDue(now)
		}
	}
}

// runDue drains every queued task whose run time has passed. Queue
// entries for stopped or overwritten tasks are recognized by pointer
// identity and dropped.
func (s *scheduler) runDue(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		due, tk, ok := s.queue.Peek()
		if !ok || time.UnixMilli(due).After(now) {
			return
		}
		s.queue.Pop()
		if s.tasks[tk.name] != tk {
			continue
		}
		s.runTask(tk)
		s.queue.Push(now.Add(tk.interval).UnixMilli(), tk)
	}
}

func (s *scheduler) runTask(tk *task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked",
				zap.String("task", tk.name),
				zap.Any("cause", r))
		}
	}()
	tk.fn(tk.ctx)
}

func (s *scheduler) ScheduleTask(name string, opts TaskOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		if !s.opts.AutoRun {
			return ErrNotRunning
		}
		s.start()
	}
	if existing, taken := s.tasks[name]; taken {
		if !opts.Overwrite {
			return ErrTaskExists
		}
		existing.cancel()
		delete(s.tasks, name)
	}
	if opts.Interval <= 0 {
		return ErrIntervalNotSet
	}
	if opts.Interval < s.opts.Interval {
		return ErrIntervalTooShort
	}
	if opts.TaskFunc == nil {
		return ErrTaskFuncNotSet
	}

	ctx, cancel := context.WithCancel(context.Background())
	tk := &task{
		name:     name,
		interval: opts.Interval,
		fn:       opts.TaskFunc,
		ctx:      ctx,
		cancel:   cancel,
	}
	s.tasks[name] = tk
	s.queue.Push(time.Now().Add(opts.Interval).UnixMilli(), tk)
	return nil
}

func (s *scheduler) StopTask(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tk, ok := s.tasks[name]
	if !ok {
		return ErrTaskNotFound
	}
	tk.cancel()
	delete(s.tasks, name)
	return nil
}

func (s *scheduler) TotalTasks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
