package audio

import (
	"testing"
	"time"
)

func TestSilenceUsesEncodingSilenceValue(t *testing.T) {
	testCases := []struct {
		name     string
		encoding EncodingInfo
		value    byte
		length   int
	}{
		{name: "linear16", encoding: EncodingInfo{SampleRate: 1000, Format: EncodingLinear16}, value: 0, length: 200},
		{name: "mulaw", encoding: EncodingInfo{SampleRate: 1000, Format: EncodingMulaw}, value: 0xFF, length: 100},
		{name: "alaw", encoding: EncodingInfo{SampleRate: 1000, Format: EncodingALaw}, value: 0x55, length: 100},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			silence := Silence(100*time.Millisecond, testCase.encoding)
			if len(silence) != testCase.length {
				t.Fatalf("expected %d bytes of silence, got %d", testCase.length, len(silence))
			}
			for i, b := range silence {
				if b != testCase.value {
					t.Fatalf("expected silence byte %#x at %d, got %#x", testCase.value, i, b)
				}
			}
		})
	}
}

func TestDurationAndBytesRoundTrip(t *testing.T) {
	encoding := GetDefaultEncodingInfo()

	n := encoding.Bytes(250 * time.Millisecond)
	if n != 8000 {
		t.Fatalf("expected 8000 bytes for 250ms at 16kHz linear16, got %d", n)
	}
	if got := encoding.Duration(n); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", got)
	}
}

func TestZeroEncodingHasNoDuration(t *testing.T) {
	if got := (EncodingInfo{}).Duration(1000); got != 0 {
		t.Fatalf("expected zero duration for zero encoding, got %s", got)
	}
	if got := (EncodingInfo{}).Bytes(time.Second); got != 0 {
		t.Fatalf("expected zero bytes for zero encoding, got %d", got)
	}
}

func TestToneLengthMatchesSegments(t *testing.T) {
	tone := Tone(8000, 0.5,
		ToneSegment{FromHz: 440, ToHz: 880, Duration: 100 * time.Millisecond},
		ToneSegment{Duration: 50 * time.Millisecond},
	)

	if len(tone) != (800+400)*2 {
		t.Fatalf("expected %d bytes, got %d", (800+400)*2, len(tone))
	}
	for i := 1600; i < len(tone); i++ {
		if tone[i] != 0 {
			t.Fatalf("expected silent segment to be zero at byte %d", i)
		}
	}
}
