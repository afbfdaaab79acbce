package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// Silence returns duration worth of silence in the given encoding.
func Silence(duration time.Duration, encodingInfo EncodingInfo) []byte {
	silence := make([]byte, encodingInfo.Bytes(duration))
	if value := encodingInfo.SilenceValue(); value != 0 {
		for i := range silence {
			silence[i] = value
		}
	}
	return silence
}

// PadSilence appends duration worth of silence to audio.
func PadSilence(audio []byte, duration time.Duration, encodingInfo EncodingInfo) []byte {
	return append(audio, Silence(duration, encodingInfo)...)
}

// ToneSegment is one step of a synthesized tone: a sine sweep from FromHz to
// ToHz over Duration. A zero frequency yields silence.
type ToneSegment struct {
	FromHz   float64
	ToHz     float64
	Duration time.Duration
}

// Tone renders segments as mono linear16 little-endian PCM with a short
// fade in and out per segment to avoid clicks. Volume is in [0, 1].
func Tone(sampleRate int, volume float64, segments ...ToneSegment) []byte {
	volume = math.Max(0, math.Min(1, volume))

	var out []byte
	phase := 0.0
	for _, segment := range segments {
		samples := int(segment.Duration.Seconds() * float64(sampleRate))
		fade := min(samples/10, sampleRate/200)
		buffer := make([]byte, samples*2)
		for i := range samples {
			progress := float64(i) / float64(max(samples, 1))
			frequency := segment.FromHz + (segment.ToHz-segment.FromHz)*progress

			amplitude := volume
			if fade > 0 {
				if i < fade {
					amplitude *= float64(i) / float64(fade)
				} else if samples-i < fade {
					amplitude *= float64(samples-i) / float64(fade)
				}
			}

			var sample float64
			if frequency > 0 {
				phase += 2 * math.Pi * frequency / float64(sampleRate)
				sample = math.Sin(phase) * amplitude
			}
			binary.LittleEndian.PutUint16(buffer[i*2:], uint16(int16(sample*math.MaxInt16)))
		}
		out = append(out, buffer...)
	}

	return out
}
