package syndication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/logger"
	"avto-sawda/pkg/queue"
	"avto-sawda/pkg/tracer"
	"avto-sawda/services/listing/internal/entity"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	MaxAttempts       = 3
	DefaultRetryDelay = 30 * time.Second
)

type ListingStore interface {
	RegistryStore
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
}

// Worker executes syndication tasks against every configured channel.
type Worker struct {
	pipeline   *Pipeline
	store      ListingStore
	channels   []string
	retry      Dispatcher
	retryDelay time.Duration
	logger     *logger.Logger
}

func NewWorker(pipeline *Pipeline, store ListingStore, channels []string, retry Dispatcher, log *logger.Logger) *Worker {
	return &Worker{
		pipeline:   pipeline,
		store:      store,
		channels:   channels,
		retry:      retry,
		retryDelay: DefaultRetryDelay,
		logger:     log,
	}
}

func (w *Worker) SetRetryDelay(d time.Duration) {
	w.retryDelay = d
}

// Handle runs one task. It returns an error only for store failures worth redelivering.
func (w *Worker) Handle(ctx context.Context, task Task) error {
	ctx, span := tracer.Start(ctx, "syndication."+string(task.Kind),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("listing.id", task.ListingID),
			attribute.Int("syndication.attempt", task.Attempt),
		),
	)
	defer span.End()

	var err error
	switch task.Kind {
	case TaskPost:
		err = w.post(ctx, task)
	case TaskUpdate:
		err = w.update(ctx, task)
	case TaskDelete:
		w.delete(ctx, task)
	default:
		w.logger.Warn("Unknown syndication task kind %q for listing %s", task.Kind, task.ListingID)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// HandleMessage decodes a queued task. Undecodable messages are dropped.
func (w *Worker) HandleMessage(ctx context.Context, body []byte) error {
	var task Task
	if err := json.Unmarshal(body, &task); err != nil {
		w.logger.Error("Failed to decode syndication task: %v", err)
		return queue.ErrDrop
	}
	return w.Handle(ctx, task)
}

func (w *Worker) load(ctx context.Context, id string) (*entity.Listing, error) {
	l, err := w.store.GetByID(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			w.logger.Debug("Listing %s is gone, skipping syndication", id)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load listing %s: %w", id, err)
	}
	if l.Status != entity.StatusSale {
		return nil, nil
	}
	return l, nil
}

func (w *Worker) post(ctx context.Context, task Task) error {
	l, err := w.load(ctx, task.ListingID)
	if err != nil || l == nil {
		return err
	}

	failed := false
	for _, ch := range w.channels {
		_, err := w.pipeline.Post(ctx, l, ch)
		if errors.Is(err, ErrDisabled) {
			// Without credentials no channel can succeed on a later attempt.
			return nil
		}
		if err != nil {
			failed = true
		}
	}
	if failed {
		w.scheduleRetry(task)
	}
	return nil
}

func (w *Worker) update(ctx context.Context, task Task) error {
	l, err := w.load(ctx, task.ListingID)
	if err != nil || l == nil {
		return err
	}
	for _, ch := range w.channels {
		w.pipeline.Update(ctx, l, ch)
	}
	return nil
}

// delete removes every recorded post, including posts in channels no longer configured.
func (w *Worker) delete(ctx context.Context, task Task) {
	l := &entity.Listing{ID: task.ListingID, TelegramPosts: task.Posts}
	for _, post := range task.Posts {
		w.pipeline.Delete(ctx, l, post.ChannelID)
	}
}

func (w *Worker) scheduleRetry(task Task) {
	next := task
	next.Attempt++
	if next.Attempt >= MaxAttempts || w.retry == nil {
		w.logger.Warn("Giving up posting listing %s after %d attempts", task.ListingID, next.Attempt)
		return
	}

	delay := w.retryDelay * time.Duration(next.Attempt)
	time.AfterFunc(delay, func() {
		if err := w.retry.Enqueue(context.Background(), next); err != nil {
			w.logger.Error("Failed to requeue post of listing %s: %v", task.ListingID, err)
		}
	})
}
