package miniaudio

import (
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-narrator/core/audio"
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient

	encodingInfo audio.EncodingInfo
}

// NewClient opens the default playback device. Only linear16 is supported;
// a zero encoding falls back to the project default.
func NewClient(encodingInfo audio.EncodingInfo) (*Client, error) {
	if encodingInfo.IsZero() {
		encodingInfo = audio.GetDefaultEncodingInfo()
	}
	if encodingInfo.Format != audio.EncodingLinear16 {
		return nil, fmt.Errorf("unsupported playback encoding %q", encodingInfo.Format.Name())
	}

	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) { logger.Debug("malgo", "message", message) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{
		audioContext: audioCtx,
		encodingInfo: encodingInfo,
	}

	if err := client.playbackClient.Init(audioCtx, encodingInfo); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	return &client, nil
}

func (c *Client) Close() {
	_ = c.playbackClient.Uninit()
	if c.audioContext != nil {
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
		c.audioContext = nil
	}
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return c.encodingInfo
}

// Play queues a notification sound and returns immediately. Failures are
// logged; callers never observe them.
func (c *Client) Play(sound []byte) {
	if err := c.SendAudio(sound); err != nil {
		logger.Warn("failed to queue notification sound", "error", err)
	}
}
