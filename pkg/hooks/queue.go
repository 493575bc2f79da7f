package hooks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueClosed is returned by Post after Close.
var ErrQueueClosed = errors.New("deferred queue closed")

// Task is one unit of deferred work.
type Task func(ctx context.Context)

// Queue runs posted tasks one at a time, in posting order, on a single
// worker goroutine. A task never runs inside the Post call that queued it.
type Queue struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []Task
	busy   bool
	closed bool
	done   chan struct{}
}

// NewQueue starts a queue worker. Tasks receive a context that is
// cancelled by Close.
func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{ctx: ctx, cancel: cancel, logger: logger, done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// Post appends t to the queue.
func (q *Queue) Post(t Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.tasks = append(q.tasks, t)
	q.cond.Broadcast()
	return nil
}

// Flush blocks until every task posted before the call has run.
func (q *Queue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for (len(q.tasks) > 0 || q.busy) && !q.stopped() {
		q.cond.Wait()
	}
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close stops accepting tasks, lets queued tasks finish and waits for the
// worker to exit. It must not be called from a task.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
	q.mu.Unlock()
	<-q.done
	q.cancel()
}

func (q *Queue) stopped() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 && q.closed {
			q.mu.Unlock()
			q.cond.Broadcast()
			return
		}
		t := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.busy = true
		q.mu.Unlock()

		q.run(t)

		q.mu.Lock()
		q.busy = false
		q.cond.Broadcast()
		q.mu.Unlock()
	}
}

func (q *Queue) run(t Task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("deferred task panicked", "panic", r)
		}
	}()
	t(q.ctx)
}
