package narrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/koscakluka/ema-narrator/core/events"
	"github.com/koscakluka/ema-narrator/core/speech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

type SpeakResult int

const (
	SpeakPlayed SpeakResult = iota
	// SpeakMuted means the speak gate was closed.
	SpeakMuted
	// SpeakRejected means something was playing and the stop gate was
	// closed.
	SpeakRejected
	// SpeakSuperseded means a newer request or a stop arrived while this
	// one was being synthesized.
	SpeakSuperseded
	SpeakFailed
)

func (r SpeakResult) String() string {
	switch r {
	case SpeakPlayed:
		return "played"
	case SpeakMuted:
		return "muted"
	case SpeakRejected:
		return "rejected"
	case SpeakSuperseded:
		return "superseded"
	case SpeakFailed:
		return "failed"
	}
	return "unknown"
}

// speechChannel serialises access to the speech engine. At most one
// utterance plays at a time; a newer accepted request always wins over an
// older one still being synthesized.
//
// Lock order is channel, then gates.
type speechChannel struct {
	engine speech.Engine
	gates  *gates
	emit   eventEmitter

	mu sync.Mutex
	// generation is bumped by every admitted request, stop and teardown.
	// A request only plays while its ticket is still the current generation.
	generation uint64
	tornDown   bool
}

func newSpeechChannel(engine speech.Engine, gates *gates, emit eventEmitter) *speechChannel {
	if isNil(engine) {
		engine = nil
	}
	if emit == nil {
		emit = noopEventEmitter
	}
	return &speechChannel{engine: engine, gates: gates, emit: emit}
}

// Speak plays utterance, stopping whatever is playing. See reserve for how
// concurrent requests are ordered.
func (c *speechChannel) Speak(ctx context.Context, utterance Utterance) (SpeakResult, error) {
	ticket, result, ok := c.reserve(utterance)
	if !ok {
		return c.refuse(ctx, utterance, result), nil
	}
	return c.speak(ctx, utterance, ticket)
}

// reserve hands out the ticket that orders a request against every other
// request and stop. Only the holder of the newest ticket may start playing,
// so callers that need arrival order reserve before going asynchronous.
// Requests the gates turn away get no ticket and leave the generation
// untouched, so they never supersede an accepted request.
func (c *speechChannel) reserve(utterance Utterance) (ticket uint64, result SpeakResult, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine != nil && !c.tornDown {
		if result, ok := c.admitLocked(utterance); !ok {
			return 0, result, false
		}
	}
	c.generation++
	return c.generation, SpeakPlayed, true
}

// refuse reports a request that was turned away before it got a ticket.
func (c *speechChannel) refuse(ctx context.Context, utterance Utterance, result SpeakResult) SpeakResult {
	utteranceCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result.String()),
		attribute.String("priority", utterance.Priority.String()),
	))
	return c.drop(utterance, result)
}

func (c *speechChannel) speak(ctx context.Context, utterance Utterance, ticket uint64) (result SpeakResult, err error) {
	ctx, span := tracer.Start(ctx, "speak utterance")
	defer func() {
		span.SetAttributes(attribute.String("utterance.result", result.String()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		utteranceCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("result", result.String()),
			attribute.String("priority", utterance.Priority.String()),
		))
	}()
	span.SetAttributes(
		attribute.String("utterance.id", utterance.ID),
		attribute.String("utterance.priority", utterance.Priority.String()),
	)

	c.mu.Lock()
	if c.engine == nil || c.tornDown {
		c.mu.Unlock()
		return c.fail(utterance, speech.ErrNotInitialized)
	}
	if result, ok := c.admitLocked(utterance); !ok {
		c.mu.Unlock()
		return c.drop(utterance, result), nil
	}
	if ticket != c.generation {
		c.mu.Unlock()
		return c.drop(utterance, SpeakSuperseded), nil
	}
	engine := c.engine
	c.mu.Unlock()

	handle, err := engine.Synthesize(ctx, utterance.Text)
	if err != nil {
		return c.fail(utterance, fmt.Errorf("failed to synthesize utterance: %w", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tornDown {
		return c.fail(utterance, speech.ErrNotInitialized)
	}
	if ticket != c.generation {
		return c.drop(utterance, SpeakSuperseded), nil
	}
	if result, ok := c.admitLocked(utterance); !ok {
		return c.drop(utterance, result), nil
	}

	if c.engine.PlaybackState() == speech.PlaybackPlaying {
		if err := c.engine.Stop(); err != nil {
			logger.Warn("failed to stop current utterance", "utterance", utterance.ID, "error", err)
		}
	}
	if err := c.engine.Play(handle); err != nil {
		return c.fail(utterance, fmt.Errorf("failed to play utterance: %w", err))
	}

	logger.Debug("speaking", "utterance", utterance.ID, "text", utterance.Text)
	c.emit(events.NewUtteranceStarted(utterance.event()))
	return SpeakPlayed, nil
}

// admitLocked applies the gates to a normal utterance. Override utterances
// are always admitted.
func (c *speechChannel) admitLocked(utterance Utterance) (SpeakResult, bool) {
	if utterance.Priority == PriorityOverride {
		return SpeakPlayed, true
	}

	gate := c.gates.Snapshot()
	if !gate.CanSpeak {
		return SpeakMuted, false
	}
	if !gate.CanStop && c.engine.PlaybackState() == speech.PlaybackPlaying {
		return SpeakRejected, false
	}
	return SpeakPlayed, true
}

func (c *speechChannel) drop(utterance Utterance, result SpeakResult) SpeakResult {
	logger.Debug("utterance dropped", "utterance", utterance.ID, "result", result.String())

	switch result {
	case SpeakMuted:
		c.emit(events.NewUtteranceMuted(utterance.event()))
	case SpeakRejected:
		c.emit(events.NewUtteranceRejected(utterance.event()))
	case SpeakSuperseded:
		c.emit(events.NewUtteranceSuperseded(utterance.event()))
	}
	return result
}

func (c *speechChannel) fail(utterance Utterance, err error) (SpeakResult, error) {
	c.emit(events.NewUtteranceFailed(utterance.event(), err))
	return SpeakFailed, err
}

// Stop silences the current utterance and discards any request still being
// synthesized. Unless forced it is only honoured while the stop gate is
// open. It never waits for the engine to drain.
func (c *speechChannel) Stop(force bool) bool {
	if !force && !c.gates.Snapshot().CanStop {
		logger.Debug("stop ignored, stop gate closed")
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine == nil || c.tornDown {
		return false
	}

	c.generation++
	if c.engine.PlaybackState() == speech.PlaybackPlaying {
		if err := c.engine.Stop(); err != nil {
			logger.Warn("failed to stop speech", "error", err)
			return false
		}
	}
	c.emit(events.NewSpeechSilenced(force))
	return true
}

// Teardown releases the engine. It is safe to call any number of times and
// with no engine at all.
func (c *speechChannel) Teardown() error {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return nil
	}
	c.tornDown = true
	c.generation++
	engine := c.engine
	c.mu.Unlock()

	if engine == nil {
		return nil
	}

	var errs []error
	if err := engine.Stop(); err != nil && !errors.Is(err, speech.ErrNotInitialized) {
		errs = append(errs, fmt.Errorf("failed to stop speech engine: %w", err))
	}
	if err := engine.Release(); err != nil && !errors.Is(err, speech.ErrNotInitialized) {
		errs = append(errs, fmt.Errorf("failed to release speech engine: %w", err))
	}
	return errors.Join(errs...)
}

// AwaitIdle blocks until the engine has nothing playing, for at most
// timeout. Engines that signal completion are waited on directly, others
// are polled every poll interval.
func (c *speechChannel) AwaitIdle(ctx context.Context, poll, timeout time.Duration) error {
	c.mu.Lock()
	engine, tornDown := c.engine, c.tornDown
	c.mu.Unlock()
	if engine == nil || tornDown {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if notifier, ok := engine.(speech.CompletionNotifier); ok {
		select {
		case <-notifier.Done():
			return nil
		case <-ctx.Done():
			return fmt.Errorf("speech did not finish: %w", ctx.Err())
		}
	}

	if poll <= 0 {
		poll = defaultIdlePollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for engine.PlaybackState() == speech.PlaybackPlaying {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("speech did not finish: %w", ctx.Err())
		}
	}
	return nil
}
