package narrator

import "github.com/koscakluka/ema-narrator/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(callbacks narratorCallbacks) eventEmitter {
	return func(event events.Event) {
		if callbacks.onEvent != nil {
			callbacks.onEvent(event)
		}

		switch typedEvent := event.(type) {
		case events.UtteranceStarted:
			if callbacks.onSpoken != nil {
				callbacks.onSpoken(typedEvent.Utterance.Text)
			}
		case events.SpeechSilenced:
			if callbacks.onSilenced != nil {
				callbacks.onSilenced()
			}
		case events.HighlightChanged:
			if callbacks.onHighlight != nil {
				callbacks.onHighlight(typedEvent.Bounds)
			}
		}
	}
}
