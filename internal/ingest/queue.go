package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docintel/internal/entity"
)

var ErrQueueClosed = errors.New("ingest queue is shutting down")

// Handler processes one upload event. *Pipeline satisfies it.
type Handler interface {
	Handle(ctx context.Context, ev entity.UploadEvent) error
}

type job struct {
	id string
	ev entity.UploadEvent
}

// Queue runs upload events through a Handler on a fixed pool of workers.
type Queue struct {
	handler Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(handler Handler, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		handler: handler,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)
				for j := range q.ch {
					q.run(workerID, j)
				}
				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// run handles one job; a panicking handler is logged and the worker keeps going.
func (q *Queue) run(workerID int, j job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panic: %v", r)
			}
		}()
		err = q.handler.Handle(ctx, j.ev)
	}()

	if err != nil {
		q.logger.Error("upload processing failed", "worker_id", workerID, "job_id", j.id, "path", j.ev.Path, "error", err)
		return
	}
	q.logger.Debug("upload processed", "worker_id", workerID, "job_id", j.id, "path", j.ev.Path)
}

// Enqueue schedules ev. When the buffer is full it blocks until a slot frees up or ctx ends.
func (q *Queue) Enqueue(ctx context.Context, ev entity.UploadEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", ev.Path)
		return ErrQueueClosed
	}
	j := job{id: uuid.NewString(), ev: ev}
	select {
	case q.ch <- j:
		q.logger.Debug("queued upload", "job_id", j.id, "path", ev.Path)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "path", ev.Path)
	select {
	case q.ch <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting events and waits for queued ones to finish, or for ctx to end.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
