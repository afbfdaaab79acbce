// Package events defines the typed narrator event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - input.*
//   - narration.*
//   - highlight.*
//   - lifecycle.*
//
// input events
//
//   - FocusChanged (input.focus_changed): a focus change that survived
//     deduplication, with the element attributes that could be extracted.
//   - KeyPressed (input.key_pressed): a key symbol from the input listener.
//
// narration events
//
//   - UtteranceStarted (narration.utterance_started): the speech engine was
//     asked to play the utterance.
//   - UtteranceMuted (narration.utterance_muted): dropped because speaking is
//     gated off.
//   - UtteranceRejected (narration.utterance_rejected): dropped because
//     something is playing and interrupting is gated off.
//   - UtteranceSuperseded (narration.utterance_superseded): synthesis finished
//     after a newer request or a stop had already been accepted.
//   - UtteranceFailed (narration.utterance_failed): the engine failed for this
//     utterance only.
//   - SpeechSilenced (narration.silenced): playback was stopped.
//
// highlight events
//
//   - HighlightChanged (highlight.changed): a rectangle (or a clear) was handed
//     to the highlight publisher.
//
// lifecycle events
//
//   - NarratorStarted (lifecycle.started): gates opened, sources attached.
//   - NarratorStopping (lifecycle.stopping): gates closed, shutdown began.
//   - NarratorStopped (lifecycle.stopped): resources released.
package events
