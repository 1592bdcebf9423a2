// Command gravitron runs a scene headless until interrupted. Configuration comes from the
// GRAVITRON_* environment variables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/argus-labs/gravitron/pkg/gravitron"
	"github.com/argus-labs/gravitron/pkg/telemetry"
)

func main() {
	applyLogLevel()
	logger := telemetry.GetGlobalLogger("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := gravitron.NewApp(gravitron.Options{})
	if err != nil {
		logger.Error().Err(err).Msg("failed to create app")
		stop()
		os.Exit(1) //nolint:gocritic // stop is called above
	}

	logger.Info().Str("instance", app.ID().String()).Msg("starting gravitron")
	runErr := app.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("failed to flush telemetry")
	}

	if runErr != nil {
		logger.Error().Err(runErr).Msg("failed running app")
		cancel()
		stop()
		os.Exit(1) //nolint:gocritic // deferred calls are made above
	}
	logger.Info().Uint64("ticks", app.World().CurrentTick()).Msg("shut down")
}

// applyLogLevel sets the global log level from GRAVITRON_LOG_LEVEL. An invalid level is reported and
// the default is kept.
func applyLogLevel() {
	level, ok := os.LookupEnv("GRAVITRON_LOG_LEVEL")
	if !ok {
		return
	}
	if err := telemetry.SetGlobalLogLevel(level); err != nil {
		logger := telemetry.GetGlobalLogger("main")
		logger.Warn().Err(err).Msg("keeping default log level")
	}
}
