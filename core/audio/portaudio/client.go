package portaudio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-narrator/core/audio"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-narrator/core/audio/portaudio"

var logger = otelslog.NewLogger(scopeName)

// Client plays notification sounds through a blocking PortAudio output
// stream. Sounds are written from a single background goroutine so Play never
// blocks the caller; sounds queued while another one plays are dropped.
type Client struct {
	bufferSize int
	stream     *portaudio.Stream
	out        []int16

	queue     chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, audio.DefaultSampleRate, bufferSize, out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	client := &Client{
		bufferSize: bufferSize,
		stream:     stream,
		out:        out,
		queue:      make(chan []byte, 1),
		done:       make(chan struct{}),
	}
	go client.run()

	return client, nil
}

// Play queues sound (linear16, default sample rate) for playback.
func (c *Client) Play(sound []byte) {
	select {
	case c.queue <- sound:
	default:
		logger.Debug("notification sound dropped, player busy")
	}
}

func (c *Client) run() {
	defer close(c.done)
	for sound := range c.queue {
		if err := c.write(sound); err != nil {
			logger.Warn("failed to play notification sound", "error", err)
		}
	}
}

func (c *Client) write(sound []byte) error {
	bufferSize := c.bufferSize * 2

	for _, frame := range frames(sound, bufferSize) {
		if err := binary.Read(bytes.NewReader(frame), binary.LittleEndian, c.out); err != nil {
			return fmt.Errorf("failed to decode frame: %w", err)
		}
		if err := c.stream.Write(); err != nil {
			return fmt.Errorf("failed to write frame: %w", err)
		}
	}

	return nil
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.queue)
		<-c.done
		_ = c.stream.Stop()
		_ = c.stream.Close()
		_ = portaudio.Terminate()
	})
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}

// frames splits sound into frameSize chunks, zero padding the last one.
func frames(sound []byte, frameSize int) [][]byte {
	if frameSize <= 0 || len(sound) == 0 {
		return nil
	}

	var chunks [][]byte
	for start := 0; start < len(sound); start += frameSize {
		end := min(start+frameSize, len(sound))
		chunk := make([]byte, frameSize)
		copy(chunk, sound[start:end])
		chunks = append(chunks, chunk)
	}
	return chunks
}
