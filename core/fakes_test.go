package narrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/koscakluka/ema-narrator/core/a11y"
	"github.com/koscakluka/ema-narrator/core/speech"
)

type fakeHandle struct{ text string }

func (h fakeHandle) Text() string { return h.text }

type fakeEngine struct {
	mu       sync.Mutex
	calls    []string
	playing  bool
	done     chan struct{}
	released int

	synthErr     map[string]error
	synthGate    map[string]chan struct{}
	synthStarted chan string
	onPlay       func(text string)
}

func newFakeEngine() *fakeEngine {
	done := make(chan struct{})
	close(done)
	return &fakeEngine{
		done:         done,
		synthErr:     map[string]error{},
		synthGate:    map[string]chan struct{}{},
		synthStarted: make(chan string, 32),
	}
}

func (e *fakeEngine) Synthesize(ctx context.Context, text string) (speech.Handle, error) {
	e.mu.Lock()
	e.calls = append(e.calls, "synthesize:"+text)
	gate := e.synthGate[text]
	err := e.synthErr[text]
	e.mu.Unlock()

	select {
	case e.synthStarted <- text:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return fakeHandle{text: text}, nil
}

func (e *fakeEngine) Play(h speech.Handle) error {
	e.mu.Lock()
	e.calls = append(e.calls, "play:"+h.Text())
	e.playing = true
	e.done = make(chan struct{})
	onPlay := e.onPlay
	e.mu.Unlock()

	if onPlay != nil {
		onPlay(h.Text())
	}
	return nil
}

func (e *fakeEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "stop")
	e.finishLocked()
	return nil
}

func (e *fakeEngine) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, "release")
	e.released++
	e.finishLocked()
	return nil
}

func (e *fakeEngine) PlaybackState() speech.PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing {
		return speech.PlaybackPlaying
	}
	return speech.PlaybackIdle
}

// finish simulates the end of playback.
func (e *fakeEngine) finish() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishLocked()
}

func (e *fakeEngine) finishLocked() {
	if !e.playing {
		return
	}
	e.playing = false
	close(e.done)
}

func (e *fakeEngine) setPlaying() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		e.playing = true
		e.done = make(chan struct{})
	}
}

func (e *fakeEngine) callsSnapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *fakeEngine) resetCalls() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

// notifyingEngine additionally signals completion.
type notifyingEngine struct {
	*fakeEngine
}

func (e notifyingEngine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

type fakeElement struct {
	name     string
	help     string
	control  a11y.ControlType
	role     string
	rect     *a11y.Rect
	nameErr  error
	typeErr  error
	rectErr  error
	helpErr  error
	delay    time.Duration
	inspects int
}

type fakeInspector struct {
	mu       sync.Mutex
	elements map[a11y.ElementID]*fakeElement
}

func newFakeInspector(elements map[a11y.ElementID]*fakeElement) *fakeInspector {
	return &fakeInspector{elements: elements}
}

var errNoElement = errors.New("element gone")

func (i *fakeInspector) element(ctx context.Context, id a11y.ElementID) (*fakeElement, error) {
	i.mu.Lock()
	element, ok := i.elements[id]
	i.mu.Unlock()
	if !ok {
		return nil, errNoElement
	}
	if element.delay > 0 {
		select {
		case <-time.After(element.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return element, nil
}

func (i *fakeInspector) Name(ctx context.Context, id a11y.ElementID) (string, error) {
	element, err := i.element(ctx, id)
	if err != nil {
		return "", err
	}
	i.mu.Lock()
	element.inspects++
	i.mu.Unlock()
	return element.name, element.nameErr
}

func (i *fakeInspector) HelpText(ctx context.Context, id a11y.ElementID) (string, error) {
	element, err := i.element(ctx, id)
	if err != nil {
		return "", err
	}
	return element.help, element.helpErr
}

func (i *fakeInspector) ControlType(ctx context.Context, id a11y.ElementID) (a11y.ControlType, error) {
	element, err := i.element(ctx, id)
	if err != nil {
		return a11y.ControlUnknown, err
	}
	return element.control, element.typeErr
}

func (i *fakeInspector) LocalizedControlType(ctx context.Context, id a11y.ElementID) (string, error) {
	element, err := i.element(ctx, id)
	if err != nil {
		return "", err
	}
	return element.role, nil
}

func (i *fakeInspector) BoundingRect(ctx context.Context, id a11y.ElementID) (*a11y.Rect, error) {
	element, err := i.element(ctx, id)
	if err != nil {
		return nil, err
	}
	return element.rect, element.rectErr
}

func (i *fakeInspector) setHelp(id a11y.ElementID, help string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.elements[id].help = help
}

func (i *fakeInspector) inspections(id a11y.ElementID) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.elements[id].inspects
}

type recordingSoundPlayer struct {
	mu     sync.Mutex
	sounds int
}

func (p *recordingSoundPlayer) Play([]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sounds++
}

func (p *recordingSoundPlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sounds
}

type recordingRenderer struct {
	mu    sync.Mutex
	rects []*a11y.Rect
	block chan struct{}
	sent  chan struct{}
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{sent: make(chan struct{}, 64)}
}

func (r *recordingRenderer) Send(rect *a11y.Rect) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.rects = append(r.rects, rect)
	r.mu.Unlock()

	select {
	case r.sent <- struct{}{}:
	default:
	}
}

func (r *recordingRenderer) received() []*a11y.Rect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*a11y.Rect(nil), r.rects...)
}

type fakeSource struct {
	mu      sync.Mutex
	onFocus func(a11y.ElementID)
	onKey   func(a11y.Key)
}

func (s *fakeSource) SubscribeFocus(onFocus func(a11y.ElementID)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFocus = onFocus
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.onFocus = nil
	}
}

func (s *fakeSource) SubscribeKeys(onKey func(a11y.Key)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onKey = onKey
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.onKey = nil
	}
}

func (s *fakeSource) focus(id a11y.ElementID) bool {
	s.mu.Lock()
	onFocus := s.onFocus
	s.mu.Unlock()
	if onFocus == nil {
		return false
	}
	onFocus(id)
	return true
}

func (s *fakeSource) key(key a11y.Key) bool {
	s.mu.Lock()
	onKey := s.onKey
	s.mu.Unlock()
	if onKey == nil {
		return false
	}
	onKey(key)
	return true
}

func waitFor(t interface {
	Helper()
	Fatalf(string, ...any)
}, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", description)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
