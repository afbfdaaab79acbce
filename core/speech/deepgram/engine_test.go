package deepgram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-narrator/core/audio"
	"github.com/koscakluka/ema-narrator/core/speech"
)

type fakeAudioOutput struct {
	mu      sync.Mutex
	sent    [][]byte
	marks   []func(string)
	names   []string
	cleared int
}

func (o *fakeAudioOutput) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (o *fakeAudioOutput) SendAudio(audio []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, append([]byte(nil), audio...))
	return nil
}

func (o *fakeAudioOutput) ClearBuffer() {
	o.mu.Lock()
	marks, names := o.marks, o.names
	o.marks, o.names = nil, nil
	o.cleared++
	o.mu.Unlock()

	for i, callback := range marks {
		callback(names[i])
	}
}

func (o *fakeAudioOutput) Mark(mark string, callback func(string)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.marks = append(o.marks, callback)
	o.names = append(o.names, mark)
	return nil
}

// finishPlayback fires pending marks as if the device drained its buffer.
func (o *fakeAudioOutput) finishPlayback() {
	o.mu.Lock()
	marks, names := o.marks, o.names
	o.marks, o.names = nil, nil
	o.mu.Unlock()

	for i, callback := range marks {
		callback(names[i])
	}
}

func (o *fakeAudioOutput) lastSent() []byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return nil
	}
	return o.sent[len(o.sent)-1]
}

type fakeSpeakServer struct {
	mu       sync.Mutex
	spoken   []string
	auth     string
	rawQuery string
}

func (s *fakeSpeakServer) handler(t *testing.T) http.Handler {
	upgrader := websocket.Upgrader{}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.auth = r.Header.Get("Authorization")
		s.rawQuery = r.URL.RawQuery
		s.mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			var msg speakMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}

			switch msg.Type {
			case "Speak":
				s.mu.Lock()
				s.spoken = append(s.spoken, msg.Text)
				s.mu.Unlock()
				if strings.Contains(msg.Text, "broken") {
					_ = conn.WriteJSON(map[string]string{"type": "Error", "err_code": "INVALID", "err_msg": "bad text"})
					continue
				}
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte(msg.Text))
			case "Flush":
				_ = conn.WriteJSON(websocketMessage{Type: "Flushed"})
			case "Close":
				return
			}
		}
	})
}

func newTestEngine(t *testing.T, opts ...EngineOption) (*Engine, *fakeAudioOutput, *fakeSpeakServer) {
	t.Helper()

	server := &fakeSpeakServer{}
	httpServer := httptest.NewServer(server.handler(t))
	t.Cleanup(httpServer.Close)

	endpoint, err := url.Parse(httpServer.URL)
	if err != nil {
		t.Fatalf("failed to parse server url: %v", err)
	}
	endpoint.Scheme = "ws"
	endpoint.Path = "/v1/speak"

	output := &fakeAudioOutput{}
	opts = append([]EngineOption{WithAPIKey("test-key"), WithEndpoint(*endpoint)}, opts...)
	engine, err := NewEngine(output, opts...)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	return engine, output, server
}

func TestNewEngineRequiresAPIKey(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "")

	if _, err := NewEngine(&fakeAudioOutput{}); err == nil {
		t.Fatalf("expected missing api key to fail")
	}
}

func TestNewEngineRejectsUnknownVoice(t *testing.T) {
	if _, err := NewEngine(&fakeAudioOutput{}, WithAPIKey("key"), WithVoice("robot")); err == nil {
		t.Fatalf("expected unknown voice to fail")
	}
}

func TestEngineSynthesizeAndPlay(t *testing.T) {
	engine, output, server := newTestEngine(t,
		WithSpeechOptions(speech.NewOptions(speech.WithAppendedSilence(10*time.Millisecond))))

	handle, err := engine.Synthesize(context.Background(), "Search, edit")
	if err != nil {
		t.Fatalf("unexpected synthesis error: %v", err)
	}
	if handle.Text() != "Search, edit" {
		t.Fatalf("expected handle text to be kept, got %q", handle.Text())
	}

	server.mu.Lock()
	auth, rawQuery := server.auth, server.rawQuery
	server.mu.Unlock()
	if auth != "token test-key" {
		t.Fatalf("expected token authorization header, got %q", auth)
	}
	if !strings.Contains(rawQuery, "model="+string(defaultVoice)) || !strings.Contains(rawQuery, "encoding=linear16") {
		t.Fatalf("expected voice and encoding in query, got %q", rawQuery)
	}

	if err := engine.Play(handle); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}
	if engine.PlaybackState() != speech.PlaybackPlaying {
		t.Fatalf("expected engine to be playing")
	}

	silence := audio.GetDefaultEncodingInfo().Bytes(10 * time.Millisecond)
	if got, want := len(output.lastSent()), len("Search, edit")+silence; got != want {
		t.Fatalf("expected %d bytes of padded audio, got %d", want, got)
	}

	done := engine.Done()
	output.finishPlayback()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected done channel to close after playback")
	}
	if engine.PlaybackState() != speech.PlaybackIdle {
		t.Fatalf("expected engine to be idle after playback")
	}
}

func TestEngineSplitsSentencesWithPunctuationSilence(t *testing.T) {
	engine, output, server := newTestEngine(t,
		WithSpeechOptions(speech.NewOptions(speech.WithPunctuationSilence(20*time.Millisecond))))

	handle, err := engine.Synthesize(context.Background(), "First. Second")
	if err != nil {
		t.Fatalf("unexpected synthesis error: %v", err)
	}

	server.mu.Lock()
	spoken := append([]string(nil), server.spoken...)
	server.mu.Unlock()
	if len(spoken) != 2 || spoken[0] != "First." || spoken[1] != "Second" {
		t.Fatalf("expected two sentences to be spoken separately, got %q", spoken)
	}

	if err := engine.Play(handle); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}
	silence := audio.GetDefaultEncodingInfo().Bytes(20 * time.Millisecond)
	if got, want := len(output.lastSent()), len("First.")+len("Second")+silence; got != want {
		t.Fatalf("expected %d bytes, got %d", want, got)
	}
}

func TestEngineSynthesisErrorIsTyped(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Synthesize(context.Background(), "broken text")
	if !errors.Is(err, speech.ErrSynthesisFailed) {
		t.Fatalf("expected synthesis failure, got %v", err)
	}
}

func TestEngineStopClearsPlayback(t *testing.T) {
	engine, output, _ := newTestEngine(t)

	handle, err := engine.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected synthesis error: %v", err)
	}
	if err := engine.Play(handle); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}

	if err := engine.Stop(); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	if engine.PlaybackState() != speech.PlaybackIdle {
		t.Fatalf("expected engine to be idle after stop")
	}

	output.mu.Lock()
	cleared := output.cleared
	output.mu.Unlock()
	if cleared != 1 {
		t.Fatalf("expected output buffer to be cleared once, got %d", cleared)
	}
}

func TestEngineReleaseIsIdempotent(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	if err := engine.Release(); err != nil {
		t.Fatalf("unexpected release error: %v", err)
	}
	if err := engine.Release(); err != nil {
		t.Fatalf("unexpected second release error: %v", err)
	}

	if _, err := engine.Synthesize(context.Background(), "hello"); !errors.Is(err, speech.ErrNotInitialized) {
		t.Fatalf("expected released engine to refuse synthesis, got %v", err)
	}
	if err := engine.Stop(); !errors.Is(err, speech.ErrNotInitialized) {
		t.Fatalf("expected released engine to refuse stop, got %v", err)
	}
}

func TestSegmentText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		split bool
		want  []string
	}{
		{name: "no split", text: "One. Two.", split: false, want: []string{"One. Two."}},
		{name: "sentences", text: "One. Two! Three", split: true, want: []string{"One.", "Two!", "Three"}},
		{name: "no punctuation", text: "Search", split: true, want: []string{"Search"}},
		{name: "blank", text: "  ", split: true, want: []string{"  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segmentText(tt.text, tt.split)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
