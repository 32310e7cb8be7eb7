package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/barrace/internal/adapters/mq/queue"
	worker "github.com/okian/barrace/internal/adapters/mq/worker"
	logging "github.com/okian/barrace/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// mockSender records delivered messages and can be told to fail.
type mockSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (ms *mockSender) Send(_ context.Context, m queue.Message) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.err != nil {
		return ms.err
	}
	ms.sent = append(ms.sent, string(m))
	return nil
}

func (ms *mockSender) messages() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.sent...)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestWriter(t *testing.T) {
	convey.Convey("Given a writer over a viewer queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		sender := &mockSender{}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		convey.Convey("When messages are queued", func() {
			w := worker.NewWriter(q, sender, worker.WithName("viewer-test"))
			go w.Run(ctx)

			_ = q.Enqueue(ctx, queue.Message("one"))
			_ = q.Enqueue(ctx, queue.Message("two"))

			convey.Convey("Then they are sent in order", func() {
				convey.So(eventually(func() bool { return len(sender.messages()) == 2 }), convey.ShouldBeTrue)
				convey.So(sender.messages(), convey.ShouldResemble, []string{"one", "two"})
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When a send fails", func() {
			sender.err = errors.New("broken pipe")
			var mu sync.Mutex
			var reported error
			w := worker.NewWriter(q, sender, worker.WithOnError(func(err error) {
				mu.Lock()
				reported = err
				mu.Unlock()
			}))
			go w.Run(ctx)
			_ = q.Enqueue(ctx, queue.Message("lost"))

			convey.Convey("Then the writer reports the error and exits", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
				}
				mu.Lock()
				defer mu.Unlock()
				convey.So(reported, convey.ShouldNotBeNil)
				convey.So(reported.Error(), convey.ShouldContainSubstring, "broken pipe")
			})
		})

		convey.Convey("When the queue is closed", func() {
			w := worker.NewWriter(q, sender)
			go w.Run(ctx)
			_ = q.Enqueue(ctx, queue.Message("last"))
			_ = q.Close()

			convey.Convey("Then pending messages drain and the writer exits", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
				}
				convey.So(sender.messages(), convey.ShouldResemble, []string{"last"})
			})
		})

		convey.Convey("When shutting down twice", func() {
			w := worker.NewWriter(q, sender)
			go w.Run(ctx)

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			convey.Convey("Then both calls succeed", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the loop never started", func() {
			w := worker.NewWriter(q, sender)
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer shutdownCancel()

			convey.Convey("Then shutdown times out", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldNotBeNil)
			})
		})
	})
}
