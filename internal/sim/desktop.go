// Package sim is a terminal stand-in for an accessible desktop. It supplies
// the focus and key streams, answers element queries and renders the
// narrator's highlight, so the narrator can run without a platform
// accessibility API.
package sim

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/koscakluka/ema-narrator/core/a11y"
)

var ErrElementNotFound = errors.New("element not found")

// Element is one control on the simulated desktop.
type Element struct {
	ID       a11y.ElementID
	Name     string
	HelpText string
	Control  a11y.ControlType
	Role     string
	Bounds   *a11y.Rect
	Value    string
}

// DefaultElements is a small settings dialog.
func DefaultElements() []Element {
	elements := []Element{
		{ID: "search", Name: "Search settings", Control: a11y.ControlEdit, Role: "Edit"},
		{ID: "country", Name: "Country", HelpText: "Select the country   you live in", Control: a11y.ControlComboBox, Role: "Combo box"},
		{ID: "notifications", Name: "Send me notifications", Control: a11y.ControlCheckBox, Role: "Check box"},
		{ID: "build", Name: "Build 3f9a2b7c41d0e8", Control: a11y.ControlText, Role: "Text"},
		{ID: "docs", Name: "Open the documentation", Control: a11y.ControlHyperlink, Role: "Link"},
		{ID: "ok", Name: "OK", Control: a11y.ControlButton, Role: "Button"},
		{ID: "cancel", Name: "Cancel", Control: a11y.ControlButton, Role: "Button"},
		{ID: "status", Name: "Ready", Control: a11y.ControlText, Role: ""},
	}

	// Status bar text has no on-screen bounds.
	for i := range elements[:len(elements)-1] {
		elements[i].Bounds = &a11y.Rect{Left: 40, Top: 80 + i*36, Right: 440, Bottom: 108 + i*36}
	}
	return elements
}

// Desktop holds the simulated elements and the current focus. It is safe
// for concurrent use.
type Desktop struct {
	mu       sync.Mutex
	elements []*Element
	focused  int
	latency  time.Duration

	onFocus func(a11y.ElementID)
	onKey   func(a11y.Key)
}

type DesktopOption func(*Desktop)

// WithLatency delays every element query, like a slow accessibility
// provider would.
func WithLatency(latency time.Duration) DesktopOption {
	return func(d *Desktop) { d.latency = latency }
}

func NewDesktop(elements []Element, opts ...DesktopOption) *Desktop {
	desktop := &Desktop{focused: -1}
	for _, element := range elements {
		desktop.elements = append(desktop.elements, &element)
	}
	for _, opt := range opts {
		opt(desktop)
	}
	return desktop
}

func (d *Desktop) SubscribeFocus(onFocus func(a11y.ElementID)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onFocus = onFocus
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.onFocus = nil
	}
}

func (d *Desktop) SubscribeKeys(onKey func(a11y.Key)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onKey = onKey
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.onKey = nil
	}
}

// Move shifts focus by delta, wrapping around. Focus notifications are
// raised even when focus lands on the same element again.
func (d *Desktop) Move(delta int) {
	d.mu.Lock()
	if len(d.elements) == 0 {
		d.mu.Unlock()
		return
	}
	if d.focused < 0 {
		d.focused = 0
		if delta < 0 {
			d.focused = len(d.elements) - 1
		}
	} else {
		d.focused = ((d.focused+delta)%len(d.elements) + len(d.elements)) % len(d.elements)
	}
	id := d.elements[d.focused].ID
	onFocus := d.onFocus
	d.mu.Unlock()

	if onFocus != nil {
		onFocus(id)
	}
}

// Refocus raises a focus notification for the focused element again.
func (d *Desktop) Refocus() {
	d.Move(0)
}

// Press delivers key to the focused element and reports it to the key
// subscriber. Single characters are typed into input fields.
func (d *Desktop) Press(key a11y.Key) {
	d.mu.Lock()
	if d.focused >= 0 {
		element := d.elements[d.focused]
		if element.Control.AcceptsInput() {
			switch {
			case key == KeyBackspace:
				if _, size := utf8.DecodeLastRuneInString(element.Value); size > 0 {
					element.Value = element.Value[:len(element.Value)-size]
				}
			case utf8.RuneCountInString(string(key)) == 1:
				element.Value += string(key)
			}
		}
	}
	onKey := d.onKey
	d.mu.Unlock()

	if onKey != nil {
		onKey(key)
	}
}

// Remove takes an element off the desktop. Queries for it fail from then
// on.
func (d *Desktop) Remove(id a11y.ElementID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	index := slices.IndexFunc(d.elements, func(element *Element) bool { return element.ID == id })
	if index < 0 {
		return
	}
	d.elements = slices.Delete(d.elements, index, index+1)
	switch {
	case len(d.elements) == 0:
		d.focused = -1
	case d.focused >= index:
		d.focused = max(0, d.focused-1)
	}
}

// Elements returns a copy of every element and the index of the focused
// one, -1 when nothing is focused.
func (d *Desktop) Elements() ([]Element, int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	elements := make([]Element, 0, len(d.elements))
	for _, element := range d.elements {
		elements = append(elements, *element)
	}
	return elements, d.focused
}

func (d *Desktop) element(ctx context.Context, id a11y.ElementID) (Element, error) {
	if d.latency > 0 {
		select {
		case <-time.After(d.latency):
		case <-ctx.Done():
			return Element{}, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, element := range d.elements {
		if element.ID == id {
			return *element, nil
		}
	}
	return Element{}, fmt.Errorf("%w: %s", ErrElementNotFound, id)
}

func (d *Desktop) Name(ctx context.Context, id a11y.ElementID) (string, error) {
	element, err := d.element(ctx, id)
	return element.Name, err
}

func (d *Desktop) HelpText(ctx context.Context, id a11y.ElementID) (string, error) {
	element, err := d.element(ctx, id)
	return element.HelpText, err
}

func (d *Desktop) ControlType(ctx context.Context, id a11y.ElementID) (a11y.ControlType, error) {
	element, err := d.element(ctx, id)
	return element.Control, err
}

func (d *Desktop) LocalizedControlType(ctx context.Context, id a11y.ElementID) (string, error) {
	element, err := d.element(ctx, id)
	return element.Role, err
}

func (d *Desktop) BoundingRect(ctx context.Context, id a11y.ElementID) (*a11y.Rect, error) {
	element, err := d.element(ctx, id)
	if err != nil || element.Bounds == nil {
		return nil, err
	}
	bounds := *element.Bounds
	return &bounds, nil
}
