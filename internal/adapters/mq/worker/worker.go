package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/barrace/internal/adapters/mq/queue"
	"github.com/okian/barrace/pkg/logger"
	"github.com/okian/barrace/pkg/metrics"
)

// Queue defines how writers receive messages.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Message
}

// Sender delivers one message to a viewer.
type Sender interface {
	Send(ctx context.Context, m queue.Message) error
}

// Worker writes queued messages until stopped.
type Worker interface {
	// Run starts the writer loop until ctx is cancelled, the queue is
	// closed, Shutdown is called or a send fails.
	Run(ctx context.Context)

	// Shutdown stops the loop and waits for it to exit.
	Shutdown(ctx context.Context) error
}

// Writer implements Worker for a single viewer connection.
type Writer struct {
	queue  Queue
	sender Sender
	name   string

	onError func(error)

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWriter creates a writer with configuration options.
func NewWriter(q Queue, sender Sender, opts ...Option) *Writer {
	w := &Writer{
		queue:    q,
		sender:   sender,
		name:     "writer",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the writer loop.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)

	messages := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case m, ok := <-messages:
			if !ok {
				return
			}
			if err := w.send(ctx, m); err != nil {
				w.logger.Warn(ctx, "viewer write failed", logger.String("writer", w.name), logger.Error(err))
				if w.onError != nil {
					w.onError(err)
				}
				return
			}
		}
	}
}

func (w *Writer) send(ctx context.Context, m queue.Message) error {
	start := time.Now()
	if err := w.sender.Send(ctx, m); err != nil {
		metrics.RecordErrorByComponent("worker", "send")
		return fmt.Errorf("send %d bytes: %w", len(m), err)
	}
	metrics.RecordViewerMessageSent(float64(time.Since(start).Microseconds()) / 1000)
	return nil
}

// Shutdown stops the writer and waits for it to finish. Calling it more
// than once is safe.
func (w *Writer) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out", logger.String("writer", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when the loop has exited.
func (w *Writer) Done() <-chan struct{} {
	return w.done
}
