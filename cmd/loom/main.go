package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	loom "github.com/loomtest/loom"
	"github.com/loomtest/loom/exitcodes"
	"github.com/loomtest/loom/flags"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "loom"
	app.Usage = "Concurrent test harness"
	app.Description = "loom runs a manifest of tests concurrently and reports live status"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if loom.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if loom.IsTestFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	// Start telemetry
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Error("Failed to setup open telemetry", "message", err)
		os.Exit(exitcodes.RuntimeErr)
	}
	defer otelShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error("Application failed", "message", err)
		os.Exit(exitcodes.RuntimeErr)
	}
}

func run(ctx *cli.Context) error {
	level, err := log.ParseLevel(ctx.String(flags.LogLevel.Name))
	if err != nil {
		return loom.NewRuntimeError(fmt.Errorf("invalid log level: %w", err))
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})

	cfg, err := loom.NewConfig(ctx, logger)
	if err != nil {
		return loom.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "manifest", cfg.ManifestPath, "concurrency", cfg.Concurrency)

	svc, err := loom.New(ctx.Context, cfg, Version, nil)
	if err != nil {
		return loom.NewRuntimeError(fmt.Errorf("failed to create service: %w", err))
	}

	if err := svc.Start(ctx.Context); err != nil {
		return err
	}

	if !cfg.RunOnce {
		// Continuous mode: run until interrupted
		<-ctx.Context.Done()
		if err := svc.Stop(context.Background()); err != nil {
			return loom.NewRuntimeError(err)
		}
	}
	return nil
}
