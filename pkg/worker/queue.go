package worker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrQueueClosed is returned by Close when called twice.
var ErrQueueClosed = errors.New("queue closed")

// Job is one unit of best-effort work. The context carries the per-job timeout.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// ResultFunc observes every finished job; err is nil on success.
type ResultFunc func(job Job, err error, elapsed time.Duration)

// Queue runs submitted jobs one at a time, in submission order, on a single
// goroutine. Submit never blocks: when the buffer is full the job is dropped.
type Queue struct {
	jobs     chan Job
	timeout  time.Duration
	onResult ResultFunc

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	once   sync.Once
}

func NewQueue(size int, timeout time.Duration, onResult ResultFunc) *Queue {
	if size <= 0 {
		size = 1
	}
	if onResult == nil {
		onResult = func(Job, error, time.Duration) {}
	}
	return &Queue{
		jobs:     make(chan Job, size),
		timeout:  timeout,
		onResult: onResult,
		done:     make(chan struct{}),
	}
}

// Start launches the worker goroutine. Calling it more than once is a no-op.
func (q *Queue) Start() {
	q.once.Do(func() {
		go q.loop()
	})
}

func (q *Queue) loop() {
	defer close(q.done)
	for job := range q.jobs {
		q.run(job)
	}
}

func (q *Queue) run(job Job) {
	ctx := context.Background()
	cancel := context.CancelFunc(func() {})
	if q.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
	}
	defer cancel()

	start := time.Now()
	err := q.safeRun(ctx, job)
	q.onResult(job, err, time.Since(start))
}

func (q *Queue) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return job.Run(ctx)
}

// Submit enqueues the job. It reports false when the queue is full or closed.
func (q *Queue) Submit(job Job) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		return false
	}
}

// Len is the number of jobs waiting to run.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// Close stops accepting jobs and waits for the backlog to drain or ctx to end.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	// Drain even if Start was never called.
	q.Start()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PanicError reports a job that panicked.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return "job panicked"
}
