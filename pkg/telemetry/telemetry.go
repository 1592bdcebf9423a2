// Package telemetry sets up logging and tracing for gravitron processes.
package telemetry

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/argus-labs/gravitron/pkg/assert"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry bundles the root logger and the tracer of a service.
type Telemetry struct {
	Logger      zerolog.Logger
	Tracer      trace.Tracer
	serviceName string
	shutdown    func(context.Context) error
}

// New builds the logger and tracer for a service. Environment configuration is applied first and
// non-zero fields in opts override it. Call Shutdown before exiting to flush spans.
func New(opts Options) (Telemetry, error) {
	config, err := loadConfig()
	if err != nil {
		return Telemetry{}, eris.Wrap(err, "failed to load telemetry config")
	}

	options, err := config.resolve(opts)
	if err != nil {
		return Telemetry{}, eris.Wrap(err, "invalid telemetry options")
	}

	level, err := zerolog.ParseLevel(strings.ToLower(options.LogLevel))
	assert.That(err == nil, "log level is validated by resolve")

	tracer, shutdown, err := setupTracing(options)
	if err != nil {
		return Telemetry{}, err
	}

	return Telemetry{
		Logger:      zerolog.New(writerFor(options.LogFormat, options.Output)).Level(level).With().Timestamp().Logger(),
		Tracer:      tracer,
		serviceName: options.ServiceName,
		shutdown:    shutdown,
	}, nil
}

// Shutdown flushes pending spans and stops the exporter, if tracing was enabled.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.shutdown == nil {
		return nil
	}
	return eris.Wrap(t.shutdown(ctx), "failed to shut down tracing")
}

// GetLogger returns a child logger tagged with component=<service>.<component>.
func (t *Telemetry) GetLogger(component string) zerolog.Logger {
	return t.Logger.With().Str("component", t.serviceName+"."+component).Logger()
}

func writerFor(format LogFormat, out io.Writer) io.Writer {
	switch format {
	case LogFormatJSON:
		return out
	case LogFormatPretty:
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	case LogFormatUndefined:
	}
	assert.That(false, "unknown log format %s", format)
	return out
}

func init() { //nolint:gochecknoinits // global console logger for code running before New
	log.Logger = zerolog.New(writerFor(LogFormatPretty, os.Stdout)). //nolint:reassign // intended
										Level(zerolog.InfoLevel).
										With().
										Timestamp().
										Caller().
										Logger()
}

// GetGlobalLogger returns a child of the global console logger tagged with component.
func GetGlobalLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// SetGlobalLogLevel changes the level of the global console logger. An unknown level is rejected and
// the current level is kept.
func SetGlobalLogLevel(level string) error {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return eris.Wrapf(err, "invalid log level %q", level)
	}
	log.Logger = log.Logger.Level(parsed) //nolint:reassign // intended
	return nil
}
