package speech

import "time"

// Options carry voice settings for an engine. Engines ignore settings they
// cannot honour and document which ones those are.
type Options struct {
	// Rate is a multiplier on the engine's natural speaking rate.
	Rate float64
	// Pitch is a multiplier on the engine's natural pitch.
	Pitch float64
	// AppendedSilence is added after every utterance.
	AppendedSilence time.Duration
	// PunctuationSilence is inserted at sentence punctuation.
	PunctuationSilence time.Duration
}

type Option func(*Options)

func DefaultOptions() Options {
	return Options{Rate: 1, Pitch: 1}
}

// NewOptions applies opts over DefaultOptions.
func NewOptions(opts ...Option) Options {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithRate(rate float64) Option {
	return func(o *Options) {
		if rate <= 0 {
			return
		}
		o.Rate = rate
	}
}

func WithPitch(pitch float64) Option {
	return func(o *Options) {
		if pitch <= 0 {
			return
		}
		o.Pitch = pitch
	}
}

func WithAppendedSilence(silence time.Duration) Option {
	return func(o *Options) { o.AppendedSilence = max(silence, 0) }
}

func WithPunctuationSilence(silence time.Duration) Option {
	return func(o *Options) { o.PunctuationSilence = max(silence, 0) }
}
