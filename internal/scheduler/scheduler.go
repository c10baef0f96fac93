package scheduler

import (
	"log/slog"
	"sync"
)

// Scheduler owns the designated goroutine's task queue, the worker pool,
// the outstanding-work counters, and the fatal-error latch. All methods are
// safe to call from any goroutine.
type Scheduler struct {
	logger *slog.Logger
	pool   *workerPool

	mu            sync.Mutex
	queue         []func() // tasks for the designated goroutine; nil is the stop marker
	wake          chan struct{}
	stopRequested bool
	failed        bool
	err           error
	shutdown      bool
	workCount     int
	poolCount     int
	poolDone      *sync.Cond
}

// New creates a scheduler with a worker pool of the given size. A size of
// zero or less falls back to one worker per CPU.
func New(logger *slog.Logger, workers int) *Scheduler {
	s := &Scheduler{
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
	s.poolDone = sync.NewCond(&s.mu)
	s.pool = newWorkerPool(workers)
	return s
}

// Logger returns the scheduler's logger.
func (s *Scheduler) Logger() *slog.Logger { return s.logger }

// Task posts fn to the designated goroutine. Tasks run in posting order;
// tasks posted after the run loop has stopped are never executed.
func (s *Scheduler) Task(fn func()) {
	if fn == nil {
		panic("scheduler: nil task")
	}
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
	s.signalWake()
}

// Run executes posted tasks on the calling goroutine until the work count
// reaches zero or an error is latched, then returns the latched error, if
// any. The calling goroutine becomes the designated goroutine: all graph
// mutation happens inside tasks executed here.
func (s *Scheduler) Run() error {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 {
			s.mu.Unlock()
			<-s.wake
			s.mu.Lock()
		}
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if fn == nil {
			return s.Err()
		}
		fn()
	}
}

// BeginWork records one unit of outstanding work. Every BeginWork must be
// paired with exactly one EndWork.
func (s *Scheduler) BeginWork() {
	s.mu.Lock()
	s.workCount++
	s.mu.Unlock()
}

// EndWork retires one unit of outstanding work. When the counter reaches
// zero the run loop is asked to stop, behind any still-queued tasks.
func (s *Scheduler) EndWork() {
	s.mu.Lock()
	s.workCount--
	done := s.workCount == 0
	s.mu.Unlock()
	if done {
		s.requestStop()
	}
}

// SchedulePoolWork dispatches task to the worker pool, holding one unit of
// global work and one unit of pool work until it completes. After Shutdown
// the call is a no-op.
func (s *Scheduler) SchedulePoolWork(task func()) {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return
	}
	s.workCount++
	s.poolCount++
	s.mu.Unlock()

	s.pool.submit(func() {
		task()

		s.mu.Lock()
		s.workCount--
		stopNow := s.workCount == 0
		s.poolCount--
		if s.poolCount == 0 {
			s.poolDone.Broadcast()
		}
		s.mu.Unlock()
		if stopNow {
			s.requestStop()
		}
	})
}

// DrainPool blocks the calling goroutine until no pool work is in flight.
// Used at teardown so no worker is touched after shutdown begins, whether
// or not the build succeeded.
func (s *Scheduler) DrainPool() {
	s.mu.Lock()
	for s.poolCount > 0 {
		s.poolDone.Wait()
	}
	s.mu.Unlock()
}

// Shutdown drains the pool and stops its workers. Fail calls after
// Shutdown are no-ops.
func (s *Scheduler) Shutdown() {
	s.DrainPool()
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	s.pool.close()
}

// Fail latches err and asks the run loop to stop. First error wins: once
// an error is latched, or the scheduler has been shut down, later calls
// are silently dropped so the first reported root cause is what the user
// sees.
func (s *Scheduler) Fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if s.failed || s.shutdown {
		s.mu.Unlock()
		return
	}
	s.failed = true
	s.err = err
	s.mu.Unlock()
	s.requestStop()
}

// Failed reports whether an error has been latched.
func (s *Scheduler) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// Err returns the latched error, or nil.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Log emits a progress line on the designated goroutine, so interleaved
// output from concurrent loads is never garbled.
func (s *Scheduler) Log(verb, msg string) {
	s.Task(func() {
		s.logger.Info(verb, "detail", msg)
	})
}

// requestStop enqueues the stop marker once. Tasks queued before the
// marker still run; anything posted after it is dropped with the loop.
func (s *Scheduler) requestStop() {
	s.mu.Lock()
	if s.stopRequested {
		s.mu.Unlock()
		return
	}
	s.stopRequested = true
	s.queue = append(s.queue, nil)
	s.mu.Unlock()
	s.signalWake()
}

func (s *Scheduler) signalWake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
