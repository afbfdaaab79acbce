package sim

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/koscakluka/ema-narrator/internal/sim"

var logger = otelslog.NewLogger(scopeName)
