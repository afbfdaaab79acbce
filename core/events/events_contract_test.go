package events

import (
	"errors"
	"testing"

	"github.com/koscakluka/ema-narrator/core/a11y"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	utterance := Utterance{ID: "1", Text: "OK, Button"}
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "focus changed", event: NewFocusChanged("element-1"), expected: KindFocusChanged},
		{name: "key pressed", event: NewKeyPressed("a"), expected: KindKeyPressed},
		{name: "utterance started", event: NewUtteranceStarted(utterance), expected: KindUtteranceStarted},
		{name: "utterance muted", event: NewUtteranceMuted(utterance), expected: KindUtteranceMuted},
		{name: "utterance rejected", event: NewUtteranceRejected(utterance), expected: KindUtteranceRejected},
		{name: "utterance superseded", event: NewUtteranceSuperseded(utterance), expected: KindUtteranceSuperseded},
		{name: "utterance failed", event: NewUtteranceFailed(utterance, errors.New("boom")), expected: KindUtteranceFailed},
		{name: "speech silenced", event: NewSpeechSilenced(true), expected: KindSpeechSilenced},
		{name: "highlight changed", event: NewHighlightChanged(&a11y.Rect{Right: 1, Bottom: 1}), expected: KindHighlightChanged},
		{name: "narrator started", event: NewNarratorStarted(), expected: KindNarratorStarted},
		{name: "narrator stopping", event: NewNarratorStopping(), expected: KindNarratorStopping},
		{name: "narrator stopped", event: NewNarratorStopped(nil), expected: KindNarratorStopped},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected %q to carry a timestamp", testCase.expected)
			}
		})
	}
}

func TestFocusChangedKeepsElementIdentity(t *testing.T) {
	event := NewFocusChanged("element-7")

	if event.Element != "element-7" {
		t.Fatalf("expected element identity %q, got %q", "element-7", event.Element)
	}
	if event.Bounds != nil {
		t.Fatalf("expected no bounds on a fresh focus event")
	}
}
