package main

import (
	"context"
	"log/slog"

	"schedule-backend/internal/components/telemetry"
	"schedule-backend/lib/util/serviceutil"
)

// InitTelemetry installs logging, tracing and perf stats. When verbose, the
// returned output receives every outbound HTTP exchange.
func InitTelemetry(ctx context.Context, verbose bool) telemetry.MessageOutput {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	providers, err := telemetry.SetupFromEnv(ctx, "schedule-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		err := providers.Shutdown(context.Background())
		if err != nil {
			slog.Warn("shutdown telemetry", "err", err)
		}
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return nil
	}
	output, err := telemetry.NewFilesystemOutput(".dev/resty/retrieval")
	if err != nil {
		serviceutil.Fatal("create resty output", err)
	}
	return output
}
