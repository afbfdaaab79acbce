package narrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-narrator/core/cues"
	"github.com/koscakluka/ema-narrator/core/events"
	"go.opentelemetry.io/otel/codes"
)

// Start brings the narrator up. Speech stays gated while the startup cue
// and welcome message play; only then are the event sources attached and
// the gates opened. Start can only be called once.
func (n *Narrator) Start(ctx context.Context) (err error) {
	n.lifecycleMu.Lock()
	defer n.lifecycleMu.Unlock()

	switch n.state {
	case stateRunning, stateFailed:
		return ErrAlreadyStarted
	case stateStopped:
		return ErrAlreadyStopped
	}

	ctx, span := tracer.Start(ctx, "start narrator")
	defer func() {
		if err != nil {
			n.state = stateFailed
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	n.gates.set(gatesClosed)

	var missing []error
	if n.channel.engine == nil {
		missing = append(missing, fmt.Errorf("%w: speech engine", ErrResourceUnavailable))
	}
	if n.inspector == nil {
		missing = append(missing, fmt.Errorf("%w: element inspector", ErrResourceUnavailable))
	}
	if len(missing) > 0 {
		return errors.Join(missing...)
	}

	if n.startupShutdownCues {
		n.cues.Play(n.sounds, cues.Startup)
		if err := settle(ctx, n.startupSettle); err != nil {
			return fmt.Errorf("startup interrupted: %w", err)
		}

		if n.welcomeMessage != "" {
			if _, err := n.channel.Speak(ctx, NewUtterance(n.welcomeMessage, PriorityOverride)); err != nil {
				return fmt.Errorf("%w: failed to speak welcome message: %w", ErrResourceUnavailable, err)
			}
			if err := n.channel.AwaitIdle(ctx, n.idlePoll, n.idleTimeout); err != nil {
				logger.Warn("welcome message did not finish", "error", err)
			}
		}
		if err := settle(ctx, n.welcomeSettle); err != nil {
			return fmt.Errorf("startup interrupted: %w", err)
		}
	}

	n.runtime.start(n.runCtx, n.newArbiter())
	if n.focusSource != nil {
		n.unsubscribe = append(n.unsubscribe, n.focusSource.SubscribeFocus(n.OnFocusChanged))
	}
	if n.keySource != nil {
		n.unsubscribe = append(n.unsubscribe, n.keySource.SubscribeKeys(n.OnKeyPressed))
	}

	n.gates.set(gatesOpen)
	n.state = stateRunning
	logger.Info("narrator started")
	n.emit(events.NewNarratorStarted())
	return nil
}

// Stop gates speech, says goodbye and releases everything the narrator
// holds. Every release step runs even when an earlier one fails; the
// failures are returned joined. Stop can only be called once.
func (n *Narrator) Stop(ctx context.Context) (err error) {
	n.lifecycleMu.Lock()
	defer n.lifecycleMu.Unlock()

	if n.state == stateStopped {
		return ErrAlreadyStopped
	}
	wasRunning := n.state == stateRunning
	n.state = stateStopped

	ctx, span := tracer.Start(ctx, "stop narrator")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		n.emit(events.NewNarratorStopped(err))
	}()
	n.emit(events.NewNarratorStopping())

	n.gates.set(gatesClosed)
	for _, unsubscribe := range n.unsubscribe {
		if unsubscribe != nil {
			unsubscribe()
		}
	}
	n.unsubscribe = nil

	var errs []error
	if wasRunning && n.shutdownMessage != "" {
		if _, err := n.channel.Speak(ctx, NewUtterance(n.shutdownMessage, PriorityOverride)); err != nil {
			errs = append(errs, fmt.Errorf("failed to speak shutdown message: %w", err))
		} else if err := n.channel.AwaitIdle(ctx, n.idlePoll, n.idleTimeout); err != nil {
			logger.Warn("shutdown message did not finish", "error", err)
		}
	}

	n.runtime.end()
	n.cancelRun()
	if err := n.runtime.waitUntilEnded(ctx); err != nil {
		errs = append(errs, fmt.Errorf("arbiter did not stop: %w", err))
	}
	if err := n.workers.Wait(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := n.channel.Teardown(); err != nil {
		errs = append(errs, err)
	}

	if wasRunning && n.startupShutdownCues {
		n.cues.Play(n.sounds, cues.Shutdown)
		if err := settle(ctx, n.shutdownSettle); err != nil {
			errs = append(errs, fmt.Errorf("shutdown cue interrupted: %w", err))
		}
	}

	if err := n.highlights.Close(ctx); err != nil {
		errs = append(errs, err)
	}

	logger.Info("narrator stopped")
	return errors.Join(errs...)
}
