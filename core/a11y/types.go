// Package a11y holds the value types shared between accessibility event
// sources, the narrator and its collaborators.
package a11y

import "fmt"

// ElementID is an opaque, comparable identity token for a UI element.
//
// It is only ever compared for equality. Sources derive it from whatever the
// platform exposes (UIA runtime IDs, AT-SPI paths, ...) and must produce the
// same token for the same live element.
type ElementID string

// ControlType classifies a focused element.
type ControlType int

const (
	ControlUnknown ControlType = iota
	ControlButton
	ControlCheckBox
	ControlComboBox
	ControlEdit
	ControlHyperlink
	ControlList
	ControlListItem
	ControlMenuItem
	ControlTab
	ControlText
	ControlWindow
)

var controlTypeNames = map[ControlType]string{
	ControlUnknown:   "Unknown",
	ControlButton:    "Button",
	ControlCheckBox:  "CheckBox",
	ControlComboBox:  "ComboBox",
	ControlEdit:      "Edit",
	ControlHyperlink: "Hyperlink",
	ControlList:      "List",
	ControlListItem:  "ListItem",
	ControlMenuItem:  "MenuItem",
	ControlTab:       "Tab",
	ControlText:      "Text",
	ControlWindow:    "Window",
}

func (c ControlType) String() string {
	if name, ok := controlTypeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ControlType(%d)", int(c))
}

// AcceptsInput reports whether focus on this control type routes typed keys
// to narration.
func (c ControlType) AcceptsInput() bool {
	return c == ControlEdit || c == ControlComboBox
}

// Rect is a screen-space bounding rectangle in physical pixels.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Key is a key symbol as reported by the input listener, e.g. "a", "Enter".
type Key string

const (
	KeyEnter   Key = "Enter"
	KeyControl Key = "Control"
	KeyEscape  Key = "Escape"
	KeyC       Key = "C"
)
