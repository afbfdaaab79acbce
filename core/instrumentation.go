package narrator

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-narrator/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	utteranceCounter, _ = meter.Int64Counter("narrator.utterances",
		metric.WithDescription("Speak requests by outcome"))
	droppedEventCounter, _ = meter.Int64Counter("narrator.events.dropped",
		metric.WithDescription("Input events dropped before reaching the arbiter"))
	droppedHighlightCounter, _ = meter.Int64Counter("narrator.highlights.dropped",
		metric.WithDescription("Highlight updates overwritten before rendering"))
)
