package sim

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/koscakluka/ema-narrator/core/speech"
)

const defaultWordDuration = 250 * time.Millisecond

type consoleHandle struct {
	text     string
	duration time.Duration
}

func (h consoleHandle) Text() string { return h.text }

// ConsoleEngine is a speech engine that plays nothing. Utterances "play"
// for as long as they would take to read out, so interruption behaves the
// way it does with real audio. Use it when no synthesis backend is
// available.
type ConsoleEngine struct {
	options      speech.Options
	wordDuration time.Duration

	mu       sync.Mutex
	released bool
	playing  bool
	done     chan struct{}
	timer    *time.Timer
}

type ConsoleEngineOption func(*ConsoleEngine)

func WithWordDuration(duration time.Duration) ConsoleEngineOption {
	return func(e *ConsoleEngine) {
		if duration > 0 {
			e.wordDuration = duration
		}
	}
}

func WithConsoleSpeechOptions(options speech.Options) ConsoleEngineOption {
	return func(e *ConsoleEngine) { e.options = options }
}

func NewConsoleEngine(opts ...ConsoleEngineOption) *ConsoleEngine {
	engine := &ConsoleEngine{
		options:      speech.DefaultOptions(),
		wordDuration: defaultWordDuration,
		done:         closedChannel(),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

func (e *ConsoleEngine) Synthesize(ctx context.Context, text string) (speech.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return nil, speech.ErrNotInitialized
	}
	return consoleHandle{text: text, duration: e.duration(text)}, nil
}

func (e *ConsoleEngine) duration(text string) time.Duration {
	rate := e.options.Rate
	if rate <= 0 {
		rate = 1
	}
	words := max(1, len(strings.Fields(text)))
	duration := time.Duration(float64(words) * float64(e.wordDuration) / rate)
	duration += e.options.AppendedSilence
	duration += time.Duration(strings.Count(text, ",")+strings.Count(text, ".")) * e.options.PunctuationSilence
	return duration
}

func (e *ConsoleEngine) Play(h speech.Handle) error {
	handle, ok := h.(consoleHandle)
	if !ok {
		return speech.ErrSynthesisFailed
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return speech.ErrNotInitialized
	}

	e.finishLocked()
	e.playing = true
	done := make(chan struct{})
	e.done = done
	e.timer = time.AfterFunc(handle.duration, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.done == done {
			e.finishLocked()
		}
	})
	return nil
}

func (e *ConsoleEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishLocked()
	return nil
}

func (e *ConsoleEngine) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishLocked()
	e.released = true
	return nil
}

func (e *ConsoleEngine) PlaybackState() speech.PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing {
		return speech.PlaybackPlaying
	}
	return speech.PlaybackIdle
}

// Done is closed when the current utterance finished or was stopped.
func (e *ConsoleEngine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

func (e *ConsoleEngine) finishLocked() {
	if !e.playing {
		return
	}
	e.playing = false
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	close(e.done)
}

func closedChannel() chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}
