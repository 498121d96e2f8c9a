package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Job is one document waiting to be processed.
type Job struct {
	Path        string
	SubmittedAt time.Time
}

// Handler processes a single queued document.
type Handler func(ctx context.Context, job Job)

var ErrQueueClosed = errors.New("queue closed")

// Queue is a bounded in-memory work queue with a fixed worker pool.
// Duplicate paths already waiting are dropped so a burst of file events
// processes a document once.
type Queue struct {
	jobs    chan Job
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	waiting map[string]struct{}
	closed  bool
	wg      sync.WaitGroup
}

func NewQueue(ctx context.Context, workers, capacity int, handler Handler, logger *slog.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	if capacity < 1 {
		capacity = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		jobs:    make(chan Job, capacity),
		handler: handler,
		logger:  logger,
		waiting: map[string]struct{}{},
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	return q
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for job := range q.jobs {
		q.mu.Lock()
		delete(q.waiting, job.Path)
		q.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		q.handler(ctx, job)
	}
}

// Enqueue submits a path for processing. Paths already waiting are
// silently deduplicated.
func (q *Queue) Enqueue(ctx context.Context, path string) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if _, dup := q.waiting[path]; dup {
		q.mu.Unlock()
		q.logger.Debug("async.enqueue.duplicate", "path", path)
		return nil
	}
	q.waiting[path] = struct{}{}
	q.mu.Unlock()

	select {
	case q.jobs <- Job{Path: path, SubmittedAt: time.Now().UTC()}:
		return nil
	case <-ctx.Done():
		q.mu.Lock()
		delete(q.waiting, path)
		q.mu.Unlock()
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for in-flight work, or until
// ctx expires.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.timeout")
	}
}
