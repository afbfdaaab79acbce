package deepgram

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-narrator/core/audio"
	"github.com/koscakluka/ema-narrator/core/speech"
)

// AudioOutput is where synthesized speech is played. The miniaudio client
// satisfies it.
type AudioOutput interface {
	EncodingInfo() audio.EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
	// Mark calls callback once the audio sent before it has been played or
	// cleared.
	Mark(mark string, callback func(string)) error
}

// Engine synthesizes speech through the Deepgram streaming speak API and
// plays it on an AudioOutput. Rate and pitch are not supported by the API
// and are ignored.
type Engine struct {
	output   AudioOutput
	voice    Voice
	options  speech.Options
	apiKey   string
	endpoint url.URL

	mu       sync.Mutex
	released bool
	playing  string
	done     chan struct{}
}

type EngineOption func(*Engine)

func WithVoice(voice Voice) EngineOption {
	return func(e *Engine) { e.voice = voice }
}

func WithSpeechOptions(options speech.Options) EngineOption {
	return func(e *Engine) { e.options = options }
}

// WithAPIKey overrides the key otherwise read from DEEPGRAM_API_KEY.
func WithAPIKey(apiKey string) EngineOption {
	return func(e *Engine) { e.apiKey = apiKey }
}

// WithEndpoint points the engine at a different speak endpoint, e.g. a
// self-hosted deployment.
func WithEndpoint(endpoint url.URL) EngineOption {
	return func(e *Engine) { e.endpoint = endpoint }
}

func NewEngine(output AudioOutput, opts ...EngineOption) (*Engine, error) {
	if output == nil {
		return nil, fmt.Errorf("audio output is required")
	}

	engine := &Engine{
		output:   output,
		voice:    defaultVoice,
		options:  speech.DefaultOptions(),
		apiKey:   os.Getenv("DEEPGRAM_API_KEY"),
		endpoint: url.URL{Scheme: "wss", Host: "api.deepgram.com", Path: "/v1/speak"},
		done:     closedChannel(),
	}
	for _, opt := range opts {
		opt(engine)
	}

	if engine.apiKey == "" {
		return nil, fmt.Errorf("deepgram api key not found")
	}
	if !slices.Contains(GetAvailableVoices(), engine.voice) {
		return nil, fmt.Errorf("invalid voice %q", engine.voice)
	}
	if engine.options.Rate != 1 || engine.options.Pitch != 1 {
		logger.Info("deepgram does not support rate or pitch, ignoring",
			"rate", engine.options.Rate,
			"pitch", engine.options.Pitch)
	}

	return engine, nil
}

type handle struct {
	text  string
	audio []byte
}

func (h *handle) Text() string { return h.text }

func (e *Engine) Synthesize(ctx context.Context, text string) (speech.Handle, error) {
	e.mu.Lock()
	released := e.released
	e.mu.Unlock()
	if released {
		return nil, speech.ErrNotInitialized
	}

	encodingInfo := e.output.EncodingInfo()
	generated, err := synthesize(ctx, e.endpoint, e.apiKey, e.voice, encodingInfo, segmentText(text, e.options.PunctuationSilence > 0))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", speech.ErrSynthesisFailed, err)
	}

	var joined []byte
	for i, segment := range generated {
		if i > 0 {
			joined = audio.PadSilence(joined, e.options.PunctuationSilence, encodingInfo)
		}
		joined = append(joined, segment...)
	}
	joined = audio.PadSilence(joined, e.options.AppendedSilence, encodingInfo)

	return &handle{text: text, audio: joined}, nil
}

func (e *Engine) Play(h speech.Handle) error {
	generated, ok := h.(*handle)
	if !ok || generated == nil {
		return fmt.Errorf("handle was not produced by this engine")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return speech.ErrNotInitialized
	}

	if err := e.output.SendAudio(generated.audio); err != nil {
		return fmt.Errorf("failed to send speech audio: %w", err)
	}

	e.finishLocked(e.playing)
	mark := uuid.NewString()
	e.playing = mark
	e.done = make(chan struct{})
	if err := e.output.Mark(mark, e.finished); err != nil {
		e.finishLocked(mark)
		return fmt.Errorf("failed to mark end of speech: %w", err)
	}

	return nil
}

func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return speech.ErrNotInitialized
	}
	e.finishLocked(e.playing)
	e.mu.Unlock()

	e.output.ClearBuffer()
	return nil
}

func (e *Engine) Release() error {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return nil
	}
	e.released = true
	e.finishLocked(e.playing)
	e.mu.Unlock()

	e.output.ClearBuffer()
	return nil
}

func (e *Engine) PlaybackState() speech.PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing != "" {
		return speech.PlaybackPlaying
	}
	return speech.PlaybackIdle
}

func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

func (e *Engine) finished(mark string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishLocked(mark)
}

func (e *Engine) finishLocked(mark string) {
	if mark == "" || e.playing != mark {
		return
	}
	e.playing = ""
	close(e.done)
}

func closedChannel() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
