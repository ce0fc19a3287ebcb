package ucampus

import (
	"ucampus-grades/lib/telemetry"
)

var tracer = telemetry.Tracer("ucampus.lib.platforms.ucampus")
