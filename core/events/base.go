package events

import "time"

type Kind string

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

// NewBaseAt creates a base with a caller supplied timestamp. Sources that
// receive OS timestamps should prefer it over [NewBase].
func NewBaseAt(kind Kind, timestamp time.Time) Base {
	return Base{kind: kind, timestamp: timestamp}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
