package narrator

import (
	"context"
	"time"

	"github.com/koscakluka/ema-narrator/core/a11y"
	"github.com/koscakluka/ema-narrator/core/events"
	"github.com/koscakluka/ema-narrator/core/speech"
	"github.com/koscakluka/ema-narrator/internal/config"
)

const (
	defaultWorkers          = 4
	defaultQueueCapacity    = 64
	defaultStartupSettle    = 3 * time.Second
	defaultWelcomeSettle    = time.Second
	defaultShutdownSettle   = 2 * time.Second
	defaultIdlePollInterval = 50 * time.Millisecond
	defaultIdleTimeout      = 5 * time.Second
)

type NarratorOption func(*Narrator)

// ElementInspector reads attributes of accessibility elements. Every query
// may fail on its own; elements can disappear between events.
type ElementInspector interface {
	Name(ctx context.Context, id a11y.ElementID) (string, error)
	HelpText(ctx context.Context, id a11y.ElementID) (string, error)
	ControlType(ctx context.Context, id a11y.ElementID) (a11y.ControlType, error)
	LocalizedControlType(ctx context.Context, id a11y.ElementID) (string, error)
	// BoundingRect returns nil when the element has no on-screen bounds.
	BoundingRect(ctx context.Context, id a11y.ElementID) (*a11y.Rect, error)
}

// FocusSource delivers focus changes until the returned function is called.
type FocusSource interface {
	SubscribeFocus(onFocus func(a11y.ElementID)) (unsubscribe func())
}

// KeySource delivers key presses until the returned function is called.
type KeySource interface {
	SubscribeKeys(onKey func(a11y.Key)) (unsubscribe func())
}

// SoundPlayer plays raw linear16 notification sounds without blocking.
type SoundPlayer interface {
	Play(sound []byte)
}

// OverlayRenderer draws the focus highlight. A nil rectangle clears it.
type OverlayRenderer interface {
	Send(rect *a11y.Rect)
}

func WithSpeechEngine(engine speech.Engine) NarratorOption {
	return func(n *Narrator) { n.engine = engine }
}

func WithElementInspector(inspector ElementInspector) NarratorOption {
	return func(n *Narrator) { n.inspector = inspector }
}

func WithSoundPlayer(player SoundPlayer) NarratorOption {
	return func(n *Narrator) { n.sounds = player }
}

func WithOverlayRenderer(renderer OverlayRenderer) NarratorOption {
	return func(n *Narrator) { n.overlay = renderer }
}

func WithFocusSource(source FocusSource) NarratorOption {
	return func(n *Narrator) { n.focusSource = source }
}

func WithKeySource(source KeySource) NarratorOption {
	return func(n *Narrator) { n.keySource = source }
}

// WithConfig applies the lifecycle related settings of a snapshot of cfg,
// later changes to cfg are not seen. A nil cfg is ignored.
func WithConfig(cfg *config.Config) NarratorOption {
	return func(n *Narrator) {
		if cfg == nil {
			return
		}
		snapshot, err := cfg.Snapshot()
		if err != nil {
			logger.Warn("failed to snapshot config, keeping defaults", "error", err)
			return
		}
		n.config = snapshot
		n.startupShutdownCues = snapshot.StartupShutdownSounds
		n.welcomeMessage = snapshot.WelcomeMessage
		n.shutdownMessage = snapshot.ShutdownMessage
	}
}

// WithStartupShutdownCues toggles the startup and shutdown cues together
// with the welcome message and the settle delays around them.
func WithStartupShutdownCues(enabled bool) NarratorOption {
	return func(n *Narrator) { n.startupShutdownCues = enabled }
}

func WithMessages(welcome, shutdown string) NarratorOption {
	return func(n *Narrator) {
		n.welcomeMessage = welcome
		n.shutdownMessage = shutdown
	}
}

// WithSettleDelays sets how long startup waits after the startup cue and
// after the welcome message, and how long shutdown waits after the
// shutdown cue.
func WithSettleDelays(startup, welcome, shutdown time.Duration) NarratorOption {
	return func(n *Narrator) {
		n.startupSettle = startup
		n.welcomeSettle = welcome
		n.shutdownSettle = shutdown
	}
}

// WithIdleWait bounds how long lifecycle steps wait for an utterance to
// finish playing.
func WithIdleWait(poll, timeout time.Duration) NarratorOption {
	return func(n *Narrator) {
		if poll > 0 {
			n.idlePoll = poll
		}
		if timeout > 0 {
			n.idleTimeout = timeout
		}
	}
}

// WithWorkers bounds how many inspector queries and syntheses run at once.
func WithWorkers(workers int) NarratorOption {
	return func(n *Narrator) {
		if workers > 0 {
			n.workerCount = workers
		}
	}
}

func WithQueueCapacity(capacity int) NarratorOption {
	return func(n *Narrator) {
		if capacity > 0 {
			n.queueCapacity = capacity
		}
	}
}

func WithHighlightCapacity(capacity int) NarratorOption {
	return func(n *Narrator) {
		if capacity > 0 {
			n.highlightCapacity = capacity
		}
	}
}

// WithCueSampleRate sets the sample rate cues are rendered at. It has to
// match the sound player.
func WithCueSampleRate(sampleRate int) NarratorOption {
	return func(n *Narrator) {
		if sampleRate > 0 {
			n.cueSampleRate = sampleRate
		}
	}
}

type narratorCallbacks struct {
	onEvent     func(events.Event)
	onSpoken    func(text string)
	onSilenced  func()
	onHighlight func(rect *a11y.Rect)
}

// WithEventCallback receives every event the narrator emits.
func WithEventCallback(callback func(events.Event)) NarratorOption {
	return func(n *Narrator) { n.callbacks.onEvent = callback }
}

// WithSpokenCallback is called with the text of every utterance that starts
// playing.
func WithSpokenCallback(callback func(text string)) NarratorOption {
	return func(n *Narrator) { n.callbacks.onSpoken = callback }
}

func WithSilencedCallback(callback func()) NarratorOption {
	return func(n *Narrator) { n.callbacks.onSilenced = callback }
}

func WithHighlightCallback(callback func(rect *a11y.Rect)) NarratorOption {
	return func(n *Narrator) { n.callbacks.onHighlight = callback }
}
