package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "LOOM"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Manifest = &cli.StringFlag{
		Name:     "manifest",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVars("MANIFEST"),
		Usage:    "Path to the test manifest file (eg. 'tests.yaml')",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   0,
		EnvVars: prefixEnvVars("CONCURRENCY"),
		Usage:   "Number of concurrent test workers (0 = auto-determine)",
	}
	TestTimeout = &cli.DurationFlag{
		Name:    "test-timeout",
		Value:   0,
		EnvVars: prefixEnvVars("TEST_TIMEOUT"),
		Usage:   "Default timeout for individual tests (0 = no timeout)",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVars("RUN_INTERVAL"),
		Usage:   "Interval between test runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	AllowSkips = &cli.BoolFlag{
		Name:    "allow-skips",
		Value:   true,
		EnvVars: prefixEnvVars("ALLOW_SKIPS"),
		Usage:   "Whether skipped tests count as passing",
	}
	ProgressInterval = &cli.DurationFlag{
		Name:    "progress-interval",
		Value:   30 * time.Second,
		EnvVars: prefixEnvVars("PROGRESS_INTERVAL"),
		Usage:   "Interval between progress updates while tests run (0 disables)",
	}
	StatusAddr = &cli.StringFlag{
		Name:    "status-addr",
		Value:   "",
		EnvVars: prefixEnvVars("STATUS_ADDR"),
		Usage:   "Address for the live status/metrics HTTP server (empty disables)",
	}
	ReportDir = &cli.StringFlag{
		Name:    "report-dir",
		Value:   "",
		EnvVars: prefixEnvVars("REPORT_DIR"),
		Usage:   "Directory to write run summary files (empty disables)",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "Log level (debug, info, warn, error)",
	}
)

// Flags is the full set of CLI flags loom accepts.
var Flags = []cli.Flag{
	Manifest,
	Concurrency,
	TestTimeout,
	RunInterval,
	AllowSkips,
	ProgressInterval,
	StatusAddr,
	ReportDir,
	LogLevel,
}

// CheckRequired validates that required flags were provided.
func CheckRequired(ctx *cli.Context) error {
	if ctx.String(Manifest.Name) == "" {
		return fmt.Errorf("flag %s is required", Manifest.Name)
	}
	return nil
}
