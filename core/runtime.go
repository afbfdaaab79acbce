package narrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-narrator/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type queuedEvent struct {
	event    events.Event
	focusSeq uint64
	queuedAt time.Time
}

// arbiterRuntime is the single goroutine every arbiter decision runs on.
// Producers never block on it; when the queue is full the event is dropped.
type arbiterRuntime struct {
	queue   chan queuedEvent
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once

	started atomic.Bool
}

func newArbiterRuntime(capacity int) *arbiterRuntime {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &arbiterRuntime{
		queue:   make(chan queuedEvent, capacity),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (runtime *arbiterRuntime) start(ctx context.Context, process func(context.Context, queuedEvent)) (started bool) {
	if runtime.isClosed() {
		return false
	}

	runtime.startOnce.Do(func() {
		started = true
		runtime.started.Store(true)
		go func() {
			defer close(runtime.done)

			for {
				select {
				case <-runtime.closeCh:
					return
				case <-ctx.Done():
					return
				case item := <-runtime.queue:
					if runtime.isClosed() {
						return
					}
					runtime.process(ctx, process, item)
				}
			}
		}()
	})

	return started
}

func (runtime *arbiterRuntime) process(ctx context.Context, process func(context.Context, queuedEvent), item queuedEvent) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("arbiter panicked", "event", item.event.Kind(), "panic", recovered)
		}
	}()

	process(ctx, item)
}

func (runtime *arbiterRuntime) end() {
	runtime.endOnce.Do(func() {
		close(runtime.closeCh)
	})
}

// waitUntilEnded blocks until the arbiter goroutine exited or ctx is done.
func (runtime *arbiterRuntime) waitUntilEnded(ctx context.Context) error {
	if !runtime.started.Load() {
		return nil
	}

	select {
	case <-runtime.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (runtime *arbiterRuntime) enqueue(item queuedEvent) bool {
	if !runtime.started.Load() || runtime.isClosed() {
		droppedEventCounter.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("reason", "not_running")))
		return false
	}

	item.queuedAt = time.Now()
	select {
	case runtime.queue <- item:
		return true
	default:
		droppedEventCounter.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("reason", "queue_full")))
		return false
	}
}

func (runtime *arbiterRuntime) isClosed() bool {
	select {
	case <-runtime.closeCh:
		return true
	default:
		return false
	}
}

func (runtime *arbiterRuntime) queuedEventCount() int {
	return len(runtime.queue)
}
