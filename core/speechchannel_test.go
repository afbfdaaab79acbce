package narrator

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/koscakluka/ema-narrator/core/events"
	"github.com/koscakluka/ema-narrator/core/speech"
)

func newTestChannel(engine speech.Engine, state GateState) (*speechChannel, *gates) {
	g := &gates{}
	g.set(state)
	return newSpeechChannel(engine, g, nil), g
}

func TestSpeakMutedMakesNoEngineCalls(t *testing.T) {
	engine := newFakeEngine()
	channel, _ := newTestChannel(engine, gatesClosed)

	for range 5 {
		result, err := channel.Speak(context.Background(), NewUtterance("Search, Edit", PriorityNormal))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != SpeakMuted {
			t.Fatalf("expected muted, got %v", result)
		}
	}
	if calls := engine.callsSnapshot(); len(calls) != 0 {
		t.Fatalf("expected no engine calls while muted, got %v", calls)
	}

	result, err := channel.Speak(context.Background(), NewUtterance("Aria shutting down.", PriorityOverride))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != SpeakPlayed {
		t.Fatalf("expected override to play, got %v", result)
	}

	calls := engine.callsSnapshot()
	plays := 0
	for _, call := range calls {
		if call == "play:Aria shutting down." {
			plays++
		}
	}
	if plays != 1 {
		t.Fatalf("expected exactly one play for the override, got %v", calls)
	}
}

func TestSpeakInterruptsBeforePlaying(t *testing.T) {
	engine := newFakeEngine()
	channel, _ := newTestChannel(engine, gatesOpen)

	if _, err := channel.Speak(context.Background(), NewUtterance("first", PriorityNormal)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	engine.resetCalls()

	result, err := channel.Speak(context.Background(), NewUtterance("second", PriorityNormal))
	if err != nil || result != SpeakPlayed {
		t.Fatalf("expected second utterance to play, got %v, %v", result, err)
	}

	want := []string{"synthesize:second", "stop", "play:second"}
	if calls := engine.callsSnapshot(); !slices.Equal(calls, want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
}

func TestSpeakWithoutPlaybackDoesNotStop(t *testing.T) {
	engine := newFakeEngine()
	channel, _ := newTestChannel(engine, gatesOpen)

	if _, err := channel.Speak(context.Background(), NewUtterance("hello", PriorityNormal)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"synthesize:hello", "play:hello"}
	if calls := engine.callsSnapshot(); !slices.Equal(calls, want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
}

func TestSpeakRejectedWhileStopGateClosed(t *testing.T) {
	engine := newFakeEngine()
	channel, _ := newTestChannel(engine, GateState{CanSpeak: true, CanStop: false})
	engine.setPlaying()

	result, err := channel.Speak(context.Background(), NewUtterance("OK, Button", PriorityNormal))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != SpeakRejected {
		t.Fatalf("expected rejection, got %v", result)
	}
	if calls := engine.callsSnapshot(); len(calls) != 0 {
		t.Fatalf("expected no engine calls while rejected, got %v", calls)
	}

	if channel.Stop(false) {
		t.Fatalf("expected unforced stop to be ignored with the stop gate closed")
	}
	if calls := engine.callsSnapshot(); len(calls) != 0 {
		t.Fatalf("expected ignored stop to make no calls, got %v", calls)
	}

	if !channel.Stop(true) {
		t.Fatalf("expected forced stop to be honoured")
	}
	if calls := engine.callsSnapshot(); !slices.Equal(calls, []string{"stop"}) {
		t.Fatalf("expected a single stop, got %v", calls)
	}

	result, err = channel.Speak(context.Background(), NewUtterance("OK, Button", PriorityNormal))
	if err != nil || result != SpeakPlayed {
		t.Fatalf("expected utterance to play once idle, got %v, %v", result, err)
	}
}

func TestSpeakSupersededByNewerRequest(t *testing.T) {
	engine := newFakeEngine()
	release := make(chan struct{})
	engine.synthGate["slow"] = release
	channel, _ := newTestChannel(engine, gatesOpen)

	type outcome struct {
		result SpeakResult
		err    error
	}
	slow := make(chan outcome, 1)
	go func() {
		result, err := channel.Speak(context.Background(), NewUtterance("slow", PriorityNormal))
		slow <- outcome{result, err}
	}()

	select {
	case <-engine.synthStarted:
	case <-time.After(time.Second):
		t.Fatalf("expected slow synthesis to start")
	}

	result, err := channel.Speak(context.Background(), NewUtterance("fast", PriorityNormal))
	if err != nil || result != SpeakPlayed {
		t.Fatalf("expected fast utterance to play, got %v, %v", result, err)
	}

	close(release)
	got := <-slow
	if got.err != nil || got.result != SpeakSuperseded {
		t.Fatalf("expected slow utterance to be superseded, got %v, %v", got.result, got.err)
	}

	for _, call := range engine.callsSnapshot() {
		if call == "play:slow" {
			t.Fatalf("expected superseded utterance never to play")
		}
	}
}

func TestMutedRequestDoesNotSupersedeOverride(t *testing.T) {
	engine := newFakeEngine()
	release := make(chan struct{})
	engine.synthGate["goodbye"] = release
	channel, _ := newTestChannel(engine, gatesClosed)

	type outcome struct {
		result SpeakResult
		err    error
	}
	override := make(chan outcome, 1)
	go func() {
		result, err := channel.Speak(context.Background(), NewUtterance("goodbye", PriorityOverride))
		override <- outcome{result, err}
	}()

	select {
	case <-engine.synthStarted:
	case <-time.After(time.Second):
		t.Fatalf("expected override synthesis to start")
	}

	for _, state := range []GateState{gatesClosed, {CanSpeak: true, CanStop: false}} {
		channel.gates.set(state)
		if state.CanSpeak {
			engine.setPlaying()
		}
		result, err := channel.Speak(context.Background(), NewUtterance("late", PriorityNormal))
		if err != nil || result == SpeakPlayed {
			t.Fatalf("expected late request to be turned away, got %v, %v", result, err)
		}
	}

	close(release)
	got := <-override
	if got.err != nil || got.result != SpeakPlayed {
		t.Fatalf("expected override to play, got %v, %v", got.result, got.err)
	}
	if !slices.Contains(engine.callsSnapshot(), "play:goodbye") {
		t.Fatalf("expected override to reach the engine, got %v", engine.callsSnapshot())
	}
}

func TestStopSupersedesPendingSynthesis(t *testing.T) {
	engine := newFakeEngine()
	release := make(chan struct{})
	engine.synthGate["pending"] = release
	channel, _ := newTestChannel(engine, gatesOpen)

	results := make(chan SpeakResult, 1)
	go func() {
		result, _ := channel.Speak(context.Background(), NewUtterance("pending", PriorityNormal))
		results <- result
	}()
	<-engine.synthStarted

	if !channel.Stop(true) {
		t.Fatalf("expected forced stop to be honoured")
	}
	close(release)

	if result := <-results; result != SpeakSuperseded {
		t.Fatalf("expected pending utterance to be dropped after stop, got %v", result)
	}
}

func TestSpeakRechecksGatesAfterSynthesis(t *testing.T) {
	engine := newFakeEngine()
	release := make(chan struct{})
	engine.synthGate["late"] = release
	channel, gates := newTestChannel(engine, gatesOpen)

	results := make(chan SpeakResult, 1)
	go func() {
		result, _ := channel.Speak(context.Background(), NewUtterance("late", PriorityNormal))
		results <- result
	}()
	<-engine.synthStarted

	gates.set(gatesClosed)
	close(release)

	if result := <-results; result != SpeakMuted {
		t.Fatalf("expected utterance to be muted when the gate closed during synthesis, got %v", result)
	}
}

func TestSpeakFailureIsReportedPerRequest(t *testing.T) {
	engine := newFakeEngine()
	engine.synthErr["bad"] = speech.ErrSynthesisFailed
	channel, gates := newTestChannel(engine, gatesOpen)

	result, err := channel.Speak(context.Background(), NewUtterance("bad", PriorityNormal))
	if !errors.Is(err, speech.ErrSynthesisFailed) || result != SpeakFailed {
		t.Fatalf("expected synthesis failure, got %v, %v", result, err)
	}
	if gates.Snapshot() != gatesOpen {
		t.Fatalf("expected failure to leave the gates alone")
	}

	result, err = channel.Speak(context.Background(), NewUtterance("good", PriorityNormal))
	if err != nil || result != SpeakPlayed {
		t.Fatalf("expected next request to play, got %v, %v", result, err)
	}
}

func TestTeardownIsIdempotent(t *testing.T) {
	engine := newFakeEngine()
	channel, _ := newTestChannel(engine, gatesOpen)

	if err := channel.Teardown(); err != nil {
		t.Fatalf("unexpected first teardown error: %v", err)
	}
	if err := channel.Teardown(); err != nil {
		t.Fatalf("unexpected second teardown error: %v", err)
	}
	if engine.released != 1 {
		t.Fatalf("expected engine to be released once, got %d", engine.released)
	}

	if _, err := channel.Speak(context.Background(), NewUtterance("after", PriorityOverride)); !errors.Is(err, speech.ErrNotInitialized) {
		t.Fatalf("expected speaking after teardown to fail, got %v", err)
	}
}

func TestTeardownWithoutEngine(t *testing.T) {
	var engine *fakeEngine
	channel, _ := newTestChannel(engine, gatesOpen)

	if err := channel.Teardown(); err != nil {
		t.Fatalf("unexpected teardown error: %v", err)
	}
	if err := channel.Teardown(); err != nil {
		t.Fatalf("unexpected second teardown error: %v", err)
	}
	if channel.Stop(true) {
		t.Fatalf("expected stop without engine to be a no-op")
	}
}

func TestAwaitIdleWithCompletionSignal(t *testing.T) {
	engine := newFakeEngine()
	channel, _ := newTestChannel(notifyingEngine{engine}, gatesOpen)
	engine.setPlaying()

	go func() {
		time.Sleep(10 * time.Millisecond)
		engine.finish()
	}()

	if err := channel.AwaitIdle(context.Background(), time.Hour, time.Second); err != nil {
		t.Fatalf("expected completion signal to end the wait, got %v", err)
	}
}

func TestAwaitIdlePollsPlaybackState(t *testing.T) {
	engine := newFakeEngine()
	channel, _ := newTestChannel(engine, gatesOpen)
	engine.setPlaying()

	go func() {
		time.Sleep(10 * time.Millisecond)
		engine.finish()
	}()

	if err := channel.AwaitIdle(context.Background(), time.Millisecond, time.Second); err != nil {
		t.Fatalf("expected polling to observe idle, got %v", err)
	}
}

func TestAwaitIdleIsBounded(t *testing.T) {
	engine := newFakeEngine()
	channel, _ := newTestChannel(engine, gatesOpen)
	engine.setPlaying()

	err := channel.AwaitIdle(context.Background(), time.Millisecond, 20*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected wait to time out, got %v", err)
	}
}

func TestSpeakEmitsOutcomeEvents(t *testing.T) {
	engine := newFakeEngine()
	g := &gates{}
	var kinds []events.Kind
	channel := newSpeechChannel(engine, g, func(event events.Event) { kinds = append(kinds, event.Kind()) })

	_, _ = channel.Speak(context.Background(), NewUtterance("muted", PriorityNormal))
	g.set(gatesOpen)
	_, _ = channel.Speak(context.Background(), NewUtterance("played", PriorityNormal))
	channel.Stop(false)

	want := []events.Kind{events.KindUtteranceMuted, events.KindUtteranceStarted, events.KindSpeechSilenced}
	if !slices.Equal(kinds, want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
}
