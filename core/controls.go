package narrator

import "context"

// Silence stops the current utterance regardless of the gates, the same as
// pressing Escape.
func (n *Narrator) Silence() {
	n.channel.Stop(true)
}

// Announce speaks text as a normal utterance, subject to the gates. It
// blocks until the utterance started playing or was dropped.
func (n *Narrator) Announce(ctx context.Context, text string) (SpeakResult, error) {
	return n.channel.Speak(ctx, NewUtterance(CleanText(text), PriorityNormal))
}
