package events

import "github.com/koscakluka/ema-narrator/core/a11y"

const (
	// KindFocusChanged identifies a deduplicated focus change.
	KindFocusChanged Kind = "input.focus_changed"
	// KindKeyPressed identifies a key press.
	KindKeyPressed Kind = "input.key_pressed"
)

// FocusChanged carries the attributes of a newly focused element.
//
// Optional attributes that could not be read are left empty; Bounds is nil
// when the element has no usable bounding rectangle.
type FocusChanged struct {
	Base
	Element       a11y.ElementID
	Name          string
	HelpText      string
	ControlType   a11y.ControlType
	LocalizedRole string
	Bounds        *a11y.Rect
}

// NewFocusChanged creates a focus changed event for element.
func NewFocusChanged(element a11y.ElementID) FocusChanged {
	return FocusChanged{Base: NewBase(KindFocusChanged), Element: element}
}

// KeyPressed carries a key symbol.
type KeyPressed struct {
	Base
	Key a11y.Key
}

// NewKeyPressed creates a key pressed event.
func NewKeyPressed(key a11y.Key) KeyPressed {
	return KeyPressed{Base: NewBase(KindKeyPressed), Key: key}
}
