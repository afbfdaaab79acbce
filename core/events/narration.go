package events

const (
	// KindUtteranceStarted identifies an utterance handed to the engine for playback.
	KindUtteranceStarted Kind = "narration.utterance_started"
	// KindUtteranceMuted identifies an utterance dropped by the speak gate.
	KindUtteranceMuted Kind = "narration.utterance_muted"
	// KindUtteranceRejected identifies an utterance dropped by the stop gate.
	KindUtteranceRejected Kind = "narration.utterance_rejected"
	// KindUtteranceSuperseded identifies an utterance overtaken during synthesis.
	KindUtteranceSuperseded Kind = "narration.utterance_superseded"
	// KindUtteranceFailed identifies an utterance the engine failed on.
	KindUtteranceFailed Kind = "narration.utterance_failed"
	// KindSpeechSilenced identifies a stop of the current playback.
	KindSpeechSilenced Kind = "narration.silenced"
)

// Utterance describes the text a narration event refers to.
type Utterance struct {
	ID       string
	Text     string
	Override bool
}

// UtteranceStarted marks an utterance that started playing.
type UtteranceStarted struct {
	Base
	Utterance Utterance
}

// NewUtteranceStarted creates an utterance started event.
func NewUtteranceStarted(utterance Utterance) UtteranceStarted {
	return UtteranceStarted{Base: NewBase(KindUtteranceStarted), Utterance: utterance}
}

// UtteranceMuted marks an utterance dropped while speaking was gated off.
type UtteranceMuted struct {
	Base
	Utterance Utterance
}

// NewUtteranceMuted creates an utterance muted event.
func NewUtteranceMuted(utterance Utterance) UtteranceMuted {
	return UtteranceMuted{Base: NewBase(KindUtteranceMuted), Utterance: utterance}
}

// UtteranceRejected marks an utterance dropped because it could not interrupt.
type UtteranceRejected struct {
	Base
	Utterance Utterance
}

// NewUtteranceRejected creates an utterance rejected event.
func NewUtteranceRejected(utterance Utterance) UtteranceRejected {
	return UtteranceRejected{Base: NewBase(KindUtteranceRejected), Utterance: utterance}
}

// UtteranceSuperseded marks an utterance whose synthesis was overtaken.
type UtteranceSuperseded struct {
	Base
	Utterance Utterance
}

// NewUtteranceSuperseded creates an utterance superseded event.
func NewUtteranceSuperseded(utterance Utterance) UtteranceSuperseded {
	return UtteranceSuperseded{Base: NewBase(KindUtteranceSuperseded), Utterance: utterance}
}

// UtteranceFailed marks an utterance the speech engine failed on.
type UtteranceFailed struct {
	Base
	Utterance Utterance
	Err       error
}

// NewUtteranceFailed creates an utterance failed event.
func NewUtteranceFailed(utterance Utterance, err error) UtteranceFailed {
	return UtteranceFailed{Base: NewBase(KindUtteranceFailed), Utterance: utterance, Err: err}
}

// SpeechSilenced marks a stop of the current playback.
type SpeechSilenced struct {
	Base
	Forced bool
}

// NewSpeechSilenced creates a speech silenced event.
func NewSpeechSilenced(forced bool) SpeechSilenced {
	return SpeechSilenced{Base: NewBase(KindSpeechSilenced), Forced: forced}
}
