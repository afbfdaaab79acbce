package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-narrator/core/audio"
)

type playbackClient struct {
	device *malgo.Device

	leftoverAudio []byte
	// played counts bytes handed to the device since the last clear, marks
	// are positioned against it.
	played int
	marks  []playbackMark

	mu      sync.Mutex
	audioMu sync.Mutex
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext, encodingInfo audio.EncodingInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(encodingInfo.SampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = sampleRate
	config.Playback.Format = format
	config.Playback.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = sampleRate / 20 // ~50ms of audio
	config.Periods = 4

	var err error
	if c.device, err = malgo.InitDevice(
		audioContext.Context,
		config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	); err != nil {
		return err
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *playbackClient) SendAudio(audio []byte) error {
	c.mu.Lock()
	device := c.device
	c.mu.Unlock()

	if device == nil {
		return fmt.Errorf("device not initialized")
	} else if !device.IsStarted() {
		return fmt.Errorf("device not started")
	}

	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.leftoverAudio = append(c.leftoverAudio, audio...)
	return nil
}

// ClearBuffer drops queued audio. Pending marks fire immediately so waiters
// observe the end of playback.
func (c *playbackClient) ClearBuffer() {
	c.audioMu.Lock()
	c.leftoverAudio = nil
	c.played = 0
	marks := c.marks
	c.marks = nil
	c.audioMu.Unlock()

	fireMarks(marks)
}

// Mark registers callback to run once the audio queued so far has been
// handed to the device.
func (c *playbackClient) Mark(mark string, callback func(string)) error {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.marks = append(c.marks, playbackMark{
		name:     mark,
		position: c.played + len(c.leftoverAudio),
		callback: callback,
	})
	return nil
}

// Playing reports whether queued audio is still waiting for the device.
func (c *playbackClient) Playing() bool {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	return len(c.leftoverAudio) > 0
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	c.device.Uninit()
	c.device = nil

	c.ClearBuffer()
	return nil
}

type playbackMark struct {
	name     string
	position int
	callback func(string)
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.audioMu.Lock()
		n := copy(pOutput[:min(need, len(pOutput))], c.leftoverAudio)
		c.leftoverAudio = c.leftoverAudio[n:]
		if len(c.leftoverAudio) == 0 {
			c.leftoverAudio = nil
		}
		c.played += n

		passed := 0
		for _, mark := range c.marks {
			if mark.position > c.played {
				break
			}
			passed++
		}
		toCall := c.marks[:passed]
		c.marks = c.marks[passed:]
		c.audioMu.Unlock()

		// The device callback must not block on user code.
		if len(toCall) > 0 {
			go fireMarks(toCall)
		}
	}
}

func fireMarks(marks []playbackMark) {
	for _, mark := range marks {
		if mark.callback != nil {
			mark.callback(mark.name)
		}
	}
}
