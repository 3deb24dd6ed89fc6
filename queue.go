package figmadl

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var errQueueClosed = errors.New("task queue is closed")

// Task is a unit of asynchronous work admitted to a TaskQueue.
type Task func() error

// TaskQueue admits tasks in FIFO order under two independent pacing rules:
// at most Concurrency tasks run at once, and a newly runnable task cannot
// start until Interval has elapsed since the previous task started. Both
// rules are layered on top of whatever rate limiting the task body performs
// itself.
//
// Each task's result is delivered only to the channel returned by Submit;
// one task's failure never cancels or affects sibling tasks.
type TaskQueue struct {
	concurrency int
	interval    time.Duration
	logger      *zap.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	pending   []*queuedTask
	running   int
	lastStart time.Time
	closed    bool

	dispatcherDone chan struct{}
	tasks          sync.WaitGroup
}

type queuedTask struct {
	run    Task
	result chan error
}

// NewTaskQueue creates a queue and starts its dispatcher.
func NewTaskQueue(config QueueConfig, logger *zap.Logger) *TaskQueue {
	config = config.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	q := &TaskQueue{
		concurrency:    config.Concurrency,
		interval:       config.Interval,
		logger:         logger,
		dispatcherDone: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)

	go q.dispatch()

	return q
}

// Submit enqueues a task and returns the channel its result will be
// delivered on. The channel receives exactly one value. Submitting to a
// closed queue delivers an immediate error.
func (q *TaskQueue) Submit(task Task) <-chan error {
	result := make(chan error, 1)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		result <- errQueueClosed
		return result
	}
	q.pending = append(q.pending, &queuedTask{run: task, result: result})
	q.mu.Unlock()

	q.cond.Signal()
	return result
}

// Close stops admission, waits for the dispatcher to drain the pending
// tasks and for every running task to settle.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.dispatcherDone
		q.tasks.Wait()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cond.Broadcast()
	<-q.dispatcherDone
	q.tasks.Wait()
}

// dispatch admits pending tasks one by one, honoring the concurrency
// ceiling and the minimum inter-dispatch interval. FIFO order follows from
// the single dispatcher consuming the pending slice head-first.
func (q *TaskQueue) dispatch() {
	defer close(q.dispatcherDone)

	for {
		q.mu.Lock()
		for len(q.pending) == 0 || q.running >= q.concurrency {
			if q.closed && len(q.pending) == 0 {
				q.mu.Unlock()
				return
			}
			q.cond.Wait()
		}

		next := q.pending[0]
		q.pending = q.pending[1:]

		wait := q.interval - time.Since(q.lastStart)
		q.mu.Unlock()

		if wait > 0 {
			time.Sleep(wait)
		}

		q.mu.Lock()
		q.running++
		q.lastStart = time.Now()
		running := q.running
		q.mu.Unlock()

		q.logger.Debug("task admitted",
			zap.Int("running", running),
			zap.Duration("paced", wait),
		)

		q.tasks.Add(1)
		go q.runTask(next)
	}
}

// runTask executes one task and releases its concurrency slot.
func (q *TaskQueue) runTask(t *queuedTask) {
	defer q.tasks.Done()

	err := t.run()
	t.result <- err

	q.mu.Lock()
	q.running--
	q.mu.Unlock()
	q.cond.Broadcast()

	q.logger.Debug("task completed", zap.Bool("failed", err != nil))
}
