package wsoverlay

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/koscakluka/ema-narrator/core/overlay/wsoverlay"

var logger = otelslog.NewLogger(scopeName)
