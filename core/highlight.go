package narrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/ema-narrator/core/a11y"
)

const defaultHighlightCapacity = 10

// highlightPublisher hands highlight rectangles to the overlay renderer
// without ever blocking the publisher. When the renderer falls behind the
// oldest pending rectangle is dropped.
type highlightPublisher struct {
	renderer OverlayRenderer

	mu      sync.Mutex
	queue   chan *a11y.Rect
	closed  bool
	done    chan struct{}
	dropped atomic.Uint64
}

func newHighlightPublisher(renderer OverlayRenderer, capacity int) *highlightPublisher {
	if capacity <= 0 {
		capacity = defaultHighlightCapacity
	}

	publisher := &highlightPublisher{done: make(chan struct{})}
	if isNil(renderer) {
		close(publisher.done)
		return publisher
	}

	publisher.renderer = renderer
	publisher.queue = make(chan *a11y.Rect, capacity)
	go publisher.forward()
	return publisher
}

// Publish queues rect for rendering; nil clears the highlight. It never
// blocks and is a no-op without a renderer or after Close.
func (p *highlightPublisher) Publish(rect *a11y.Rect) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renderer == nil || p.closed {
		return
	}
	p.pushLocked(rect)
}

func (p *highlightPublisher) pushLocked(rect *a11y.Rect) {
	for {
		select {
		case p.queue <- rect:
			return
		default:
		}

		select {
		case <-p.queue:
			p.dropped.Add(1)
			droppedHighlightCounter.Add(context.Background(), 1)
		default:
		}
	}
}

// Dropped reports how many rectangles were overwritten before rendering.
func (p *highlightPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Close publishes a final clear and waits for the renderer to receive
// everything still queued, or for ctx to end.
func (p *highlightPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		if p.renderer != nil {
			p.pushLocked(nil)
			close(p.queue)
		}
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("highlight publisher did not drain: %w", ctx.Err())
	}
}

func (p *highlightPublisher) forward() {
	defer close(p.done)

	send := panicSafeNamedWorker("highlight", func(context.Context) error {
		for rect := range p.queue {
			p.renderer.Send(rect)
		}
		return nil
	})
	for {
		err := send(context.Background())
		if err == nil {
			return
		}
		logger.Error("highlight renderer failed", "error", err)
	}
}
