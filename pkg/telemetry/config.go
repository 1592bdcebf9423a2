package telemetry

import (
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// envConfig is the part of the telemetry configuration read from the environment.
type envConfig struct {
	LogLevel  string    `env:"GRAVITRON_LOG_LEVEL" envDefault:"info"`
	LogFormat LogFormat `env:"GRAVITRON_LOG_FORMAT" envDefault:"pretty"`

	// OTLP/gRPC collector address, tracing stays a no-op when empty.
	TraceEndpoint   string  `env:"GRAVITRON_TRACE_ENDPOINT"`
	TraceSampleRate float64 `env:"GRAVITRON_TRACE_SAMPLE_RATE" envDefault:"1"`
}

func loadConfig() (envConfig, error) {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse telemetry config")
	}
	if err := checkLevel(cfg.LogLevel); err != nil {
		return cfg, eris.Wrap(err, "failed to validate telemetry config")
	}
	return cfg, nil
}

// Options configures New. Zero fields fall back to the environment, then to stdout for Output.
type Options struct {
	ServiceName string    // Tracer name and logger prefix, required
	LogLevel    string    // zerolog level name
	LogFormat   LogFormat // Log output format
	Output      io.Writer // Log destination

	TraceEndpoint   string  // OTLP/gRPC collector address
	TraceSampleRate float64 // Fraction of root spans sampled, only used with TraceEndpoint
}

// resolve layers opts over the environment configuration and validates the result.
func (cfg envConfig) resolve(opts Options) (Options, error) {
	resolved := Options{
		ServiceName: opts.ServiceName,
		LogLevel:    cfg.LogLevel,
		LogFormat:   cfg.LogFormat,
		Output:      os.Stdout,

		TraceEndpoint:   cfg.TraceEndpoint,
		TraceSampleRate: cfg.TraceSampleRate,
	}
	if opts.LogLevel != "" {
		resolved.LogLevel = opts.LogLevel
	}
	if opts.LogFormat != LogFormatUndefined {
		resolved.LogFormat = opts.LogFormat
	}
	if opts.Output != nil {
		resolved.Output = opts.Output
	}
	if opts.TraceEndpoint != "" {
		resolved.TraceEndpoint = opts.TraceEndpoint
	}
	if opts.TraceSampleRate != 0 {
		resolved.TraceSampleRate = opts.TraceSampleRate
	}

	switch {
	case resolved.ServiceName == "":
		return resolved, eris.New("service name cannot be empty")
	case resolved.LogFormat == LogFormatUndefined:
		return resolved, eris.New("log format must be specified")
	case resolved.TraceSampleRate < 0 || resolved.TraceSampleRate > 1:
		return resolved, eris.Errorf("trace sample rate %v out of [0, 1]", resolved.TraceSampleRate)
	}
	return resolved, checkLevel(resolved.LogLevel)
}

func checkLevel(level string) error {
	if _, err := zerolog.ParseLevel(strings.ToLower(level)); err != nil {
		return eris.Errorf("invalid log level: %s (must be 'debug', 'info', 'warn', or 'error')", level)
	}
	return nil
}

// LogFormat is the log output format.
type LogFormat uint8

const (
	LogFormatUndefined LogFormat = iota
	LogFormatJSON                // Structured JSON lines
	LogFormatPretty              // zerolog console writer
)

var logFormatNames = [...]string{
	LogFormatUndefined: "undefined",
	LogFormatJSON:      "json",
	LogFormatPretty:    "pretty",
}

func (f LogFormat) String() string {
	if int(f) >= len(logFormatNames) {
		return logFormatNames[LogFormatUndefined]
	}
	return logFormatNames[f]
}

// UnmarshalText parses the format from the environment.
func (f *LogFormat) UnmarshalText(text []byte) error {
	*f = ParseLogFormat(string(text))
	if *f == LogFormatUndefined {
		return eris.Errorf("invalid log format: %s (must be 'json' or 'pretty')", text)
	}
	return nil
}

// ParseLogFormat returns the format named s, ignoring case, or LogFormatUndefined.
func ParseLogFormat(s string) LogFormat {
	for i, name := range logFormatNames {
		if i != int(LogFormatUndefined) && strings.EqualFold(name, s) {
			return LogFormat(i)
		}
	}
	return LogFormatUndefined
}
