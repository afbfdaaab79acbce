package events

import "github.com/koscakluka/ema-narrator/core/a11y"

// KindHighlightChanged identifies a highlight update handed to the publisher.
const KindHighlightChanged Kind = "highlight.changed"

// HighlightChanged carries the new highlight rectangle, nil when cleared.
type HighlightChanged struct {
	Base
	Bounds *a11y.Rect
}

// NewHighlightChanged creates a highlight changed event.
func NewHighlightChanged(bounds *a11y.Rect) HighlightChanged {
	return HighlightChanged{Base: NewBase(KindHighlightChanged), Bounds: bounds}
}
