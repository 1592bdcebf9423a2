package gravitron

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadAppConfig()
		require.NoError(t, err)
		assert.InDelta(t, 60, cfg.TickRate, 0)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Empty(t, cfg.ScenePath)
		assert.Zero(t, cfg.MaxTicks)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("GRAVITRON_TICK_RATE", "20")
		t.Setenv("GRAVITRON_LOG_LEVEL", "DEBUG")
		t.Setenv("GRAVITRON_SCENE", "scenes/demo.toml")
		t.Setenv("GRAVITRON_MAX_TICKS", "100")

		cfg, err := loadAppConfig()
		require.NoError(t, err)
		assert.InDelta(t, 20, cfg.TickRate, 0)
		assert.Equal(t, "DEBUG", cfg.LogLevel)
		assert.Equal(t, "scenes/demo.toml", cfg.ScenePath)
		assert.Equal(t, uint64(100), cfg.MaxTicks)
	})

	t.Run("non-positive tick rate", func(t *testing.T) {
		t.Setenv("GRAVITRON_TICK_RATE", "0")
		_, err := loadAppConfig()
		require.Error(t, err)
	})

	t.Run("malformed tick rate", func(t *testing.T) {
		t.Setenv("GRAVITRON_TICK_RATE", "fast")
		_, err := loadAppConfig()
		require.Error(t, err)
	})

	t.Run("unknown log level", func(t *testing.T) {
		t.Setenv("GRAVITRON_LOG_LEVEL", "loud")
		_, err := loadAppConfig()
		require.Error(t, err)
	})
}

func TestOptions_Apply(t *testing.T) {
	t.Parallel()

	options := Options{TickRate: 60, LogLevel: "info", ScenePath: "a.toml", MaxTicks: 5}
	options.apply(Options{TickRate: 30, MaxTicks: 0})

	assert.Equal(t, Options{TickRate: 30, LogLevel: "info", ScenePath: "a.toml", MaxTicks: 5}, options)
	require.NoError(t, options.validate())

	options.apply(Options{TickRate: -1})
	require.Error(t, options.validate())
}
