package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"ucampus-grades/cmd/ucampus-cli/commands"
	"ucampus-grades/lib/telemetry"
	"ucampus-grades/lib/util/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext(context.Background())

	tel, err := telemetry.SetupFromEnv(ctx, "ucampus-cli")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to set up telemetry", "err", err)
	}

	err = commands.ExecuteContext(ctx)

	shutdownErr := tel.Shutdown(context.Background())
	if shutdownErr != nil {
		slog.Warn("failed to flush telemetry", "err", shutdownErr)
	}
	if err != nil {
		os.Exit(1)
	}
}
