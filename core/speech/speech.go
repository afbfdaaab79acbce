// Package speech defines the contract between the narrator and a speech
// engine. An engine synthesizes text into an opaque Handle which can later
// be played. Only one handle plays at a time; the narrator decides when to
// stop and when to play.
package speech

import (
	"context"
	"errors"
)

var (
	// ErrSynthesisFailed is returned when the engine could not turn text into
	// playable speech.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
	// ErrEngineBusy is returned when the engine refuses a request because it
	// is still occupied with another one.
	ErrEngineBusy = errors.New("speech engine busy")
	// ErrNotInitialized is returned when the engine was never created or has
	// already been released.
	ErrNotInitialized = errors.New("speech engine not initialized")
)

type PlaybackState int

const (
	PlaybackIdle PlaybackState = iota
	PlaybackPlaying
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackIdle:
		return "idle"
	case PlaybackPlaying:
		return "playing"
	}
	return "unknown"
}

// Handle is an engine specific synthesized utterance.
type Handle interface {
	Text() string
}

type Engine interface {
	// Synthesize turns text into a playable handle. It may block for as long
	// as synthesis takes and must honour ctx cancellation.
	Synthesize(ctx context.Context, text string) (Handle, error)
	// Play starts playing h and returns without waiting for it to finish.
	Play(h Handle) error
	// Stop stops current playback and returns without waiting for the
	// audio device to drain.
	Stop() error
	// Release frees every resource held by the engine. The engine is
	// unusable afterwards.
	Release() error
	PlaybackState() PlaybackState
}

// CompletionNotifier is implemented by engines that can signal the end of
// playback. Done returns a channel closed once nothing is playing; the
// channel is already closed when the engine is idle.
type CompletionNotifier interface {
	Done() <-chan struct{}
}
