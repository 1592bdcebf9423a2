package gravitron

import (
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// appConfig holds the configuration of an App.
// Configuration can be set via environment variables with the specified defaults.
type appConfig struct {
	// Number of ticks per second.
	TickRate float64 `env:"GRAVITRON_TICK_RATE" envDefault:"60"`

	// Log level of the app ("debug", "info", "warn", "error").
	LogLevel string `env:"GRAVITRON_LOG_LEVEL" envDefault:"info"`

	// Path of the TOML scene spawned on start. No scene is loaded when empty.
	ScenePath string `env:"GRAVITRON_SCENE"`

	// Stop after this many ticks, 0 runs until the context is cancelled.
	MaxTicks uint64 `env:"GRAVITRON_MAX_TICKS" envDefault:"0"`
}

// loadAppConfig loads the app configuration from environment variables.
func loadAppConfig() (appConfig, error) {
	cfg := appConfig{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse app config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate config")
	}

	return cfg, nil
}

// validate performs validation on the loaded configuration.
func (cfg *appConfig) validate() error {
	if cfg.TickRate <= 0 {
		return eris.New("tick rate must be positive")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		return eris.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	return nil
}

// applyToOptions applies the configuration values to the given Options.
func (cfg *appConfig) applyToOptions(opt *Options) {
	opt.TickRate = cfg.TickRate
	opt.LogLevel = cfg.LogLevel
	opt.ScenePath = cfg.ScenePath
	opt.MaxTicks = cfg.MaxTicks
}

// Options configures an App. Zero fields keep the value loaded from the environment.
type Options struct {
	TickRate  float64 // Number of ticks per second
	LogLevel  string  // Log level of the app
	ScenePath string  // TOML scene spawned on start
	MaxTicks  uint64  // Stop after this many ticks, 0 = unbounded
}

// newDefaultOptions creates Options with default values.
func newDefaultOptions() Options {
	// Set these to invalid values to force users to pass in the correct options.
	return Options{
		TickRate:  0,
		LogLevel:  "",
		ScenePath: "",
		MaxTicks:  0,
	}
}

// apply merges the given options into the current options, overriding non-zero values.
func (opt *Options) apply(newOpt Options) {
	if newOpt.TickRate != 0.0 {
		opt.TickRate = newOpt.TickRate
	}
	if newOpt.LogLevel != "" {
		opt.LogLevel = newOpt.LogLevel
	}
	if newOpt.ScenePath != "" {
		opt.ScenePath = newOpt.ScenePath
	}
	if newOpt.MaxTicks != 0 {
		opt.MaxTicks = newOpt.MaxTicks
	}
}

// validate checks that all required options are set and valid.
func (opt *Options) validate() error {
	if opt.TickRate <= 0.0 {
		return eris.New("tick rate must be positive")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(opt.LogLevel)); err != nil {
		return eris.Errorf("invalid log level: %s", opt.LogLevel)
	}
	return nil
}
