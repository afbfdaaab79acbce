package narrator

import (
	"github.com/google/uuid"
	"github.com/koscakluka/ema-narrator/core/events"
)

type Priority int

const (
	// PriorityNormal utterances obey the speech gates.
	PriorityNormal Priority = iota
	// PriorityOverride utterances bypass both gates and always interrupt.
	PriorityOverride
)

func (p Priority) String() string {
	if p == PriorityOverride {
		return "override"
	}
	return "normal"
}

type Utterance struct {
	ID       string
	Text     string
	Priority Priority
}

func NewUtterance(text string, priority Priority) Utterance {
	return Utterance{ID: uuid.NewString(), Text: text, Priority: priority}
}

func (u Utterance) event() events.Utterance {
	return events.Utterance{ID: u.ID, Text: u.Text, Override: u.Priority == PriorityOverride}
}
