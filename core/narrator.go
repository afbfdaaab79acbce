// Package narrator arbitrates accessibility events into speech.
//
// Focus and key notifications arrive on two independent, unordered streams.
// The narrator deduplicates focus changes, reads element attributes on a
// bounded worker pool, and feeds a single arbiter goroutine that decides
// what to say. Speech goes through one channel that plays a single
// utterance at a time, gated during startup and shutdown. Focus rectangles
// are published to an overlay on a best-effort basis.
package narrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-narrator/core/audio"
	"github.com/koscakluka/ema-narrator/core/cues"
	"github.com/koscakluka/ema-narrator/core/speech"
	"github.com/koscakluka/ema-narrator/internal/config"
)

type lifecycleState int

const (
	stateIdle lifecycleState = iota
	stateRunning
	stateFailed
	stateStopped
)

// Narrator owns all narration state. Create it with New, run it with
// Start and release it with Stop.
type Narrator struct {
	engine      speech.Engine
	inspector   ElementInspector
	sounds      SoundPlayer
	overlay     OverlayRenderer
	focusSource FocusSource
	keySource   KeySource
	callbacks   narratorCallbacks
	emit        eventEmitter
	config      config.Config

	startupShutdownCues bool
	cueSampleRate       int
	cues                *cues.Bank
	welcomeMessage      string
	shutdownMessage     string
	startupSettle       time.Duration
	welcomeSettle       time.Duration
	shutdownSettle      time.Duration
	idlePoll            time.Duration
	idleTimeout         time.Duration

	workerCount       int
	queueCapacity     int
	highlightCapacity int

	gates        gates
	inputFocused atomic.Bool
	dedup        focusDeduplicator
	// focusSeq orders focus events across attribute lookups that may finish
	// out of order.
	focusSeq atomic.Uint64

	channel    *speechChannel
	highlights *highlightPublisher
	runtime    *arbiterRuntime
	workers    *workerPool

	runCtx    context.Context
	cancelRun context.CancelFunc

	lifecycleMu sync.Mutex
	state       lifecycleState
	unsubscribe []func()
}

func New(opts ...NarratorOption) *Narrator {
	n := &Narrator{
		startupShutdownCues: true,
		cueSampleRate:       audio.DefaultSampleRate,
		welcomeMessage:      "Welcome to Aria.",
		shutdownMessage:     "Aria shutting down.",
		startupSettle:       defaultStartupSettle,
		welcomeSettle:       defaultWelcomeSettle,
		shutdownSettle:      defaultShutdownSettle,
		idlePoll:            defaultIdlePollInterval,
		idleTimeout:         defaultIdleTimeout,
		workerCount:         defaultWorkers,
		queueCapacity:       defaultQueueCapacity,
		highlightCapacity:   defaultHighlightCapacity,
	}

	for _, opt := range opts {
		opt(n)
	}

	if isNil(n.inspector) {
		n.inspector = nil
	}
	if isNil(n.sounds) {
		n.sounds = nil
	}

	n.emit = newCallbackEventEmitter(n.callbacks)
	n.cues = cues.NewBank(n.cueSampleRate)
	n.channel = newSpeechChannel(n.engine, &n.gates, n.emit)
	n.highlights = newHighlightPublisher(n.overlay, n.highlightCapacity)
	n.runtime = newArbiterRuntime(n.queueCapacity)
	n.workers = newWorkerPool(n.workerCount)
	n.runCtx, n.cancelRun = context.WithCancel(context.Background())

	return n
}

// Config returns the configuration snapshot taken by WithConfig.
func (n *Narrator) Config() config.Config {
	return n.config
}

// Gates returns the current gate state.
func (n *Narrator) Gates() GateState {
	return n.gates.Snapshot()
}

// InputFocused reports whether the last focused element accepts text
// input.
func (n *Narrator) InputFocused() bool {
	return n.inputFocused.Load()
}

// DroppedHighlights reports how many highlight updates were overwritten
// before the overlay rendered them.
func (n *Narrator) DroppedHighlights() uint64 {
	return n.highlights.Dropped()
}
