// Package cues synthesizes the short notification sounds the narrator plays
// around startup, shutdown and when focus lands on an input field.
package cues

import (
	"time"

	"github.com/koscakluka/ema-narrator/core/audio"
)

type Cue int

const (
	Startup Cue = iota
	Shutdown
	InputFocused
)

func (c Cue) String() string {
	switch c {
	case Startup:
		return "startup"
	case Shutdown:
		return "shutdown"
	case InputFocused:
		return "input_focused"
	}
	return "unknown"
}

const volume = 0.4

// Sound renders c as linear16 PCM at the given sample rate. Unknown cues
// render as nil.
func Sound(c Cue, sampleRate int) []byte {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}

	switch c {
	case Startup:
		return audio.Tone(sampleRate, volume,
			audio.ToneSegment{FromHz: 440, ToHz: 440, Duration: 120 * time.Millisecond},
			audio.ToneSegment{FromHz: 554, ToHz: 554, Duration: 120 * time.Millisecond},
			audio.ToneSegment{FromHz: 659, ToHz: 880, Duration: 260 * time.Millisecond},
		)
	case Shutdown:
		return audio.Tone(sampleRate, volume,
			audio.ToneSegment{FromHz: 880, ToHz: 659, Duration: 200 * time.Millisecond},
			audio.ToneSegment{FromHz: 554, ToHz: 554, Duration: 120 * time.Millisecond},
			audio.ToneSegment{FromHz: 440, ToHz: 330, Duration: 260 * time.Millisecond},
		)
	case InputFocused:
		return audio.Tone(sampleRate, volume*0.75,
			audio.ToneSegment{FromHz: 1200, ToHz: 1500, Duration: 60 * time.Millisecond},
		)
	}

	return nil
}

// Player plays raw notification sounds. Play must not block on playback.
type Player interface {
	Play(sound []byte)
}

// Bank holds prerendered cues for one sample rate.
type Bank struct {
	sounds map[Cue][]byte
}

func NewBank(sampleRate int) *Bank {
	bank := &Bank{sounds: map[Cue][]byte{}}
	for _, cue := range []Cue{Startup, Shutdown, InputFocused} {
		bank.sounds[cue] = Sound(cue, sampleRate)
	}
	return bank
}

// Play sends c to player. A nil player or bank is a no-op.
func (b *Bank) Play(player Player, c Cue) {
	if b == nil || player == nil {
		return
	}
	if sound, ok := b.sounds[c]; ok && len(sound) > 0 {
		player.Play(sound)
	}
}
