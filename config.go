package loom

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/loomtest/loom/flags"
)

// Config holds the application configuration
type Config struct {
	ManifestPath     string        // Path to the test manifest
	Concurrency      int           // Number of concurrent test workers (0 = auto-determine)
	TestTimeout      time.Duration // Default timeout for individual tests
	RunInterval      time.Duration // Interval between test runs
	RunOnce          bool          // Indicates if the service should exit after one test run
	AllowSkips       bool          // Whether skipped tests count as passing
	ProgressInterval time.Duration // Interval between progress updates during a run
	StatusAddr       string        // Live status HTTP server address, empty disables
	ReportDir        string        // Directory for run summaries, empty disables
	Log              *log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger *log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	manifest, err := filepath.Abs(ctx.String(flags.Manifest.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for manifest '%s': %w", ctx.String(flags.Manifest.Name), err)
	}

	concurrency := ctx.Int(flags.Concurrency.Name)
	if concurrency < 0 {
		return nil, fmt.Errorf("concurrency cannot be negative: %d", concurrency)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)

	var reportDir string
	if dir := ctx.String(flags.ReportDir.Name); dir != "" {
		reportDir, err = filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for report directory '%s': %w", dir, err)
		}
	}

	return &Config{
		ManifestPath:     manifest,
		Concurrency:      concurrency,
		TestTimeout:      ctx.Duration(flags.TestTimeout.Name),
		RunInterval:      runInterval,
		RunOnce:          runInterval == 0,
		AllowSkips:       ctx.Bool(flags.AllowSkips.Name),
		ProgressInterval: ctx.Duration(flags.ProgressInterval.Name),
		StatusAddr:       ctx.String(flags.StatusAddr.Name),
		ReportDir:        reportDir,
		Log:              logger,
	}, nil
}
