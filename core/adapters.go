package narrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-narrator/core/a11y"
	"github.com/koscakluka/ema-narrator/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OnFocusChanged accepts a focus notification from the platform. It never
// blocks: duplicates are dropped inline and attributes are read on the
// worker pool.
func (n *Narrator) OnFocusChanged(id a11y.ElementID) {
	switch n.dedup.Observe(id) {
	case dedupDuplicate:
		return
	case dedupContended:
		logger.Debug("focus event dropped, deduplicator busy", "element", id)
		droppedEventCounter.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("reason", "contention")))
		return
	}

	seq := n.focusSeq.Add(1)
	n.workers.Go(n.runCtx, "focus attributes", func(ctx context.Context) error {
		// Focus moved on while this lookup waited for a worker.
		if seq != n.focusSeq.Load() {
			logger.Debug("stale focus event dropped before inspection", "element", id)
			droppedEventCounter.Add(ctx, 1,
				metric.WithAttributes(attribute.String("reason", "stale")))
			return nil
		}

		event, err := n.inspectFocus(ctx, id)
		if err != nil {
			logger.Warn("focus event dropped", "element", id, "error", err)
			droppedEventCounter.Add(ctx, 1,
				metric.WithAttributes(attribute.String("reason", "inspection")))
			return nil
		}

		if !n.runtime.enqueue(queuedEvent{event: event, focusSeq: seq}) {
			logger.Debug("focus event dropped, arbiter not accepting", "element", id)
		}
		return nil
	})
}

// OnKeyPressed accepts a key notification from the platform. It never
// blocks.
func (n *Narrator) OnKeyPressed(key a11y.Key) {
	if !n.runtime.enqueue(queuedEvent{event: events.NewKeyPressed(key)}) {
		logger.Debug("key event dropped, arbiter not accepting", "key", key)
	}
}

// inspectFocus reads the attributes of id. Only the name is required, the
// other attributes degrade to empty values.
func (n *Narrator) inspectFocus(ctx context.Context, id a11y.ElementID) (events.FocusChanged, error) {
	event := events.NewFocusChanged(id)
	if n.inspector == nil {
		return event, fmt.Errorf("%w: no element inspector", ErrResourceUnavailable)
	}

	name, err := n.inspector.Name(ctx, id)
	if err != nil {
		return event, fmt.Errorf("%w: failed to read element name: %w", ErrTransientIO, err)
	}
	event.Name = strings.TrimSpace(name)

	if helpText, err := n.inspector.HelpText(ctx, id); err != nil {
		logger.Debug("help text unavailable", "element", id, "error", err)
	} else {
		event.HelpText = strings.TrimSpace(helpText)
	}

	if controlType, err := n.inspector.ControlType(ctx, id); err != nil {
		logger.Debug("control type unavailable", "element", id, "error", err)
		event.ControlType = a11y.ControlUnknown
	} else {
		event.ControlType = controlType
	}

	if role, err := n.inspector.LocalizedControlType(ctx, id); err != nil {
		logger.Debug("localized control type unavailable", "element", id, "error", err)
	} else {
		event.LocalizedRole = strings.TrimSpace(role)
	}

	if rect, err := n.inspector.BoundingRect(ctx, id); err != nil {
		logger.Debug("bounding rectangle unavailable", "element", id, "error", err)
	} else if rect != nil && !rect.Empty() {
		event.Bounds = rect
	}

	return event, nil
}
