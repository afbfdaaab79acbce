package narrator

import (
	"context"
	"strings"
	"time"

	"github.com/koscakluka/ema-narrator/core/a11y"
	"github.com/koscakluka/ema-narrator/core/cues"
	"github.com/koscakluka/ema-narrator/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// withheldKeys are never read out. Escape silences speech instead.
var withheldKeys = []a11y.Key{a11y.KeyEnter, a11y.KeyControl, a11y.KeyEscape, a11y.KeyC}

// arbiter state that is only touched from the arbiter goroutine.
type arbiterState struct {
	lastFocusSeq uint64
}

func (n *Narrator) newArbiter() func(context.Context, queuedEvent) {
	state := &arbiterState{}
	return func(ctx context.Context, item queuedEvent) {
		queuedTime := time.Since(item.queuedAt).Seconds()

		switch event := item.event.(type) {
		case events.FocusChanged:
			if item.focusSeq < state.lastFocusSeq {
				logger.Debug("stale focus event dropped", "element", event.Element)
				return
			}
			state.lastFocusSeq = item.focusSeq
			n.handleFocus(ctx, event, queuedTime)
		case events.KeyPressed:
			n.handleKey(ctx, event, queuedTime)
		}
	}
}

func (n *Narrator) handleFocus(ctx context.Context, event events.FocusChanged, queuedTime float64) {
	ctx, span := tracer.Start(ctx, "narrate focus")
	defer span.End()
	span.SetAttributes(
		attribute.String("element.id", string(event.Element)),
		attribute.String("element.control_type", event.ControlType.String()),
		attribute.Float64("event.queued_time", queuedTime),
		attribute.Int("event.queued_events", n.runtime.queuedEventCount()),
	)

	logger.Info("focus changed", "element", event.Element, "name", event.Name)
	n.emit(event)

	isInput := event.ControlType.AcceptsInput()
	n.inputFocused.Store(isInput)
	if isInput {
		n.cues.Play(n.sounds, cues.InputFocused)
	}

	n.highlights.Publish(event.Bounds)
	n.emit(events.NewHighlightChanged(event.Bounds))

	text := composeFocusText(event)
	if text == "" {
		return
	}
	n.speakAsync(ctx, NewUtterance(text, PriorityNormal))
}

func (n *Narrator) handleKey(ctx context.Context, event events.KeyPressed, queuedTime float64) {
	ctx, span := tracer.Start(ctx, "narrate key")
	defer span.End()
	span.SetAttributes(attribute.Float64("event.queued_time", queuedTime))

	n.emit(event)

	if isWithheldKey(event.Key) {
		if strings.EqualFold(string(event.Key), string(a11y.KeyEscape)) {
			n.channel.Stop(true)
		}
		return
	}

	if !n.inputFocused.Load() {
		return
	}
	n.speakAsync(ctx, NewUtterance(string(event.Key), PriorityNormal))
}

// speakAsync synthesizes on the worker pool so the arbiter can move on to
// the next event. The ticket is taken here so utterances keep arrival order.
func (n *Narrator) speakAsync(ctx context.Context, utterance Utterance) {
	ticket, result, ok := n.channel.reserve(utterance)
	if !ok {
		n.channel.refuse(ctx, utterance, result)
		return
	}
	workerCtx := trace.ContextWithSpan(n.runCtx, trace.SpanFromContext(ctx))
	n.workers.Go(workerCtx, "speak", func(ctx context.Context) error {
		result, err := n.channel.speak(ctx, utterance, ticket)
		if err != nil {
			logger.Warn("failed to speak", "utterance", utterance.ID, "result", result.String(), "error", err)
		}
		return nil
	})
}

func composeFocusText(event events.FocusChanged) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{event.Name, event.HelpText, event.LocalizedRole} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return CleanText(strings.Join(parts, ", "))
}

func isWithheldKey(key a11y.Key) bool {
	for _, withheld := range withheldKeys {
		if strings.EqualFold(string(key), string(withheld)) {
			return true
		}
	}
	return false
}
