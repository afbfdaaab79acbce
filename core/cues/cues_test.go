package cues

import (
	"testing"
	"time"

	"github.com/koscakluka/ema-narrator/core/audio"
)

type recordingPlayer struct {
	played [][]byte
}

func (p *recordingPlayer) Play(sound []byte) { p.played = append(p.played, sound) }

func TestSoundDurations(t *testing.T) {
	encodingInfo := audio.GetDefaultEncodingInfo()

	tests := []struct {
		cue  Cue
		want time.Duration
	}{
		{cue: Startup, want: 500 * time.Millisecond},
		{cue: Shutdown, want: 580 * time.Millisecond},
		{cue: InputFocused, want: 60 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.cue.String(), func(t *testing.T) {
			sound := Sound(tt.cue, encodingInfo.SampleRate)
			got := encodingInfo.Duration(len(sound))
			if diff := got - tt.want; diff > time.Millisecond || diff < -time.Millisecond {
				t.Fatalf("expected %v of audio, got %v", tt.want, got)
			}
		})
	}
}

func TestSoundUnknownCue(t *testing.T) {
	if sound := Sound(Cue(42), audio.DefaultSampleRate); sound != nil {
		t.Fatalf("expected no sound for unknown cue, got %d bytes", len(sound))
	}
}

func TestBankPlay(t *testing.T) {
	bank := NewBank(audio.DefaultSampleRate)
	player := &recordingPlayer{}

	bank.Play(player, InputFocused)
	bank.Play(nil, Startup)
	bank.Play(player, Cue(42))

	if len(player.played) != 1 {
		t.Fatalf("expected exactly one sound to be played, got %d", len(player.played))
	}

	var nilBank *Bank
	nilBank.Play(player, Startup)
	if len(player.played) != 1 {
		t.Fatalf("expected nil bank to be a no-op")
	}
}
