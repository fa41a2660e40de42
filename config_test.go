package loom

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/loomtest/loom/flags"
)

// parseConfig runs the CLI with args and captures the resulting Config.
func parseConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	var cfg *Config
	var cfgErr error
	app := cli.NewApp()
	app.Flags = flags.Flags
	app.Action = func(ctx *cli.Context) error {
		cfg, cfgErr = NewConfig(ctx, log.New(io.Discard))
		return nil
	}
	require.NoError(t, app.Run(append([]string{"loom"}, args...)))
	return cfg, cfgErr
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(t, "--manifest", "tests.yaml")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.ManifestPath))
	assert.Equal(t, 0, cfg.Concurrency)
	assert.True(t, cfg.RunOnce)
	assert.True(t, cfg.AllowSkips)
	assert.Equal(t, 30*time.Second, cfg.ProgressInterval)
	assert.Empty(t, cfg.StatusAddr)
	assert.Empty(t, cfg.ReportDir)
}

func TestNewConfigContinuousMode(t *testing.T) {
	cfg, err := parseConfig(t, "--manifest", "tests.yaml", "--run-interval", "1h", "--concurrency", "4")
	require.NoError(t, err)

	assert.False(t, cfg.RunOnce)
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestNewConfigRejectsNegativeConcurrency(t *testing.T) {
	_, err := parseConfig(t, "--manifest", "tests.yaml", "--concurrency", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency cannot be negative")
}

func TestNewConfigRequiresLogger(t *testing.T) {
	app := cli.NewApp()
	app.Flags = flags.Flags
	app.Action = func(ctx *cli.Context) error {
		_, err := NewConfig(ctx, nil)
		assert.Error(t, err)
		return nil
	}
	require.NoError(t, app.Run([]string{"loom", "--manifest", "tests.yaml"}))
}
