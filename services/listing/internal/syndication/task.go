package syndication

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"avto-sawda/pkg/logger"
	"avto-sawda/services/listing/internal/entity"
)

type TaskKind string

const (
	TaskPost   TaskKind = "post"
	TaskUpdate TaskKind = "update"
	TaskDelete TaskKind = "delete"
)

// Task is one unit of syndication work. Delete tasks carry the registry because the
// listing row is usually gone by the time they run.
type Task struct {
	Kind      TaskKind        `json:"kind"`
	ListingID string          `json:"listingId"`
	Posts     entity.Registry `json:"posts,omitempty"`
	Attempt   int             `json:"attempt,omitempty"`
}

func (t Task) priority() int {
	switch t.Kind {
	case TaskDelete:
		return 5
	case TaskUpdate:
		return 3
	default:
		return 1
	}
}

// Dispatcher hands tasks to whatever runs the Worker.
type Dispatcher interface {
	Enqueue(ctx context.Context, task Task) error
}

type Publisher interface {
	Publish(ctx context.Context, task interface{}, priority int) error
}

// QueueDispatcher publishes tasks to RabbitMQ.
type QueueDispatcher struct {
	publisher Publisher
}

func NewQueueDispatcher(publisher Publisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher}
}

func (d *QueueDispatcher) Enqueue(ctx context.Context, task Task) error {
	return d.publisher.Publish(ctx, task, task.priority())
}

var (
	ErrQueueFull   = errors.New("syndication queue is full")
	ErrQueueClosed = errors.New("syndication queue is closed")
)

// LocalDispatcher runs tasks in-process on a single goroutine.
type LocalDispatcher struct {
	tasks  chan Task
	logger *logger.Logger

	mu      sync.RWMutex
	closed  bool
	started atomic.Bool
	done    chan struct{}
}

func NewLocalDispatcher(size int, log *logger.Logger) *LocalDispatcher {
	if size <= 0 {
		size = 256
	}
	return &LocalDispatcher{
		tasks:  make(chan Task, size),
		logger: log,
		done:   make(chan struct{}),
	}
}

// Enqueue never blocks; it fails with ErrQueueFull when the buffer is exhausted.
func (d *LocalDispatcher) Enqueue(_ context.Context, task Task) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start drains the queue into handle until ctx is done or Close is called. Only the
// first call has an effect.
func (d *LocalDispatcher) Start(ctx context.Context, handle func(ctx context.Context, task Task) error) {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(d.done)
		for {
			select {
			case <-ctx.Done():
				return
			case task, ok := <-d.tasks:
				if !ok {
					return
				}
				if err := handle(ctx, task); err != nil {
					d.logger.Error("Syndication task %s for listing %s failed: %v", task.Kind, task.ListingID, err)
				}
			}
		}
	}()
}

// Close stops accepting tasks and waits for the running loop, if any, to drain.
func (d *LocalDispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.tasks)
	}
	d.mu.Unlock()
	if d.started.Load() {
		<-d.done
	}
}
