// Package loom is the test-harness service: it loads the test manifest,
// launches concurrent runs through the orchestrator, and reports results.
package loom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loomtest/loom/metrics"
	"github.com/loomtest/loom/registry"
	"github.com/loomtest/loom/reporting"
	"github.com/loomtest/loom/runner"
	"github.com/loomtest/loom/service"
	"github.com/loomtest/loom/types"
)

// Service runs the test manifest once or on an interval and exposes the live
// status of the current run.
type Service struct {
	ctx          context.Context
	config       *Config
	version      string
	orchestrator *runner.Orchestrator
	scheduler    RunScheduler
	statusServer *service.Server
	reportSink   *reporting.TextSummarySink

	lastPassed bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New creates the service from a validated config.
func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Service, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating loom service",
		"manifest", config.ManifestPath,
		"concurrency", config.Concurrency,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"allowSkips", config.AllowSkips)

	s := &Service{
		ctx:     ctx,
		config:  config,
		version: version,
		orchestrator: runner.NewOrchestrator(runner.Options{
			Concurrency: config.Concurrency,
			Timeout:     config.TestTimeout,
		}, config.Log),
		scheduler:        NewDefaultRunScheduler(config.RunInterval, config.RunOnce, config.Log),
		shutdownCallback: shutdownCallback,
	}

	if config.StatusAddr != "" {
		s.statusServer = service.New(config.StatusAddr, config.Log)
	}
	if config.ReportDir != "" {
		s.reportSink = reporting.NewTextSummarySink(config.ReportDir)
	}

	return s, nil
}

// Start runs the tests, either once or periodically at the configured
// interval. In run-once mode the returned error encodes the verdict:
// nil for a pass, TestFailureError for failing tests, RuntimeError for
// anything operational (including an interrupted run).
func (s *Service) Start(ctx context.Context) error {
	s.ctx = ctx

	if s.statusServer != nil {
		go func() {
			if err := s.statusServer.Start(ctx); err != nil {
				s.config.Log.Error("Status server failed", "error", err)
			}
		}()
	}

	if s.config.RunOnce {
		s.config.Log.Info("Starting loom in run-once mode")
	} else {
		s.config.Log.Info("Starting loom in continuous mode", "interval", s.config.RunInterval)
	}

	s.scheduler.RegisterCallback(s.runTests)
	if err := s.scheduler.Start(ctx); err != nil {
		return err
	}

	if s.config.RunOnce {
		if !s.lastPassed {
			return NewTestFailureError("one or more tests failed")
		}
		// All tests passed; signal shutdown and report success
		if s.shutdownCallback != nil {
			go s.shutdownCallback(nil)
		}
	}
	return nil
}

// runTests executes one full run of the manifest.
func (s *Service) runTests() error {
	tree, err := registry.Load(s.config.ManifestPath)
	if err != nil {
		metrics.RecordErrorDetails("manifest", err)
		return NewRuntimeError(err)
	}

	s.config.Log.Info("Running tests", "manifest", s.config.ManifestPath, "tests", tree.CountTests())

	run := s.orchestrator.Launch(s.ctx, tree)
	if s.statusServer != nil {
		s.statusServer.SetRun(run)
	}

	console := runner.NewConsoleRunner(s.config.Log, s.config.AllowSkips, s.config.ProgressInterval)
	passed, err := console.Run(s.ctx, tree, run.Status)
	if err != nil {
		// Cancellation: no verdict was produced
		metrics.RecordErrorDetails("run", err)
		return NewRuntimeError(fmt.Errorf("run %s aborted: %w", run.ID, err))
	}
	if werr := run.Wait(); werr != nil {
		metrics.RecordErrorDetails("run", werr)
		return NewRuntimeError(fmt.Errorf("run %s aborted: %w", run.ID, werr))
	}

	s.recordRun(run, passed)
	s.lastPassed = passed

	if s.reportSink != nil {
		path, err := s.reportSink.Complete(run, passed)
		if err != nil {
			s.config.Log.Error("Failed to write run summary", "error", err)
		} else {
			s.config.Log.Info("Wrote run summary", "path", path)
		}
	}

	s.config.Log.Info("Test run completed", "run_id", run.ID, "passed", passed)
	return nil
}

func (s *Service) recordRun(run *runner.Run, passed bool) {
	for _, status := range run.Status.Snapshot() {
		switch status.Kind {
		case types.StatusDone:
			metrics.RecordTest(run.ID, string(status.Result.Outcome), status.Result.Duration)
		case types.StatusException:
			metrics.RecordTest(run.ID, "error", 0)
		}
	}
	metrics.RecordRun(run.ID, passed, run.Status.Len(), time.Since(run.Started))
}

// Stop stops the service.
func (s *Service) Stop(ctx context.Context) error {
	s.config.Log.Info("Stopping loom")
	return s.scheduler.Stop()
}

// Stopped returns true if the service is stopped.
func (s *Service) Stopped() bool {
	return s.scheduler.Stopped()
}

// WaitForShutdown blocks until all goroutines have terminated.
func (s *Service) WaitForShutdown(ctx context.Context) error {
	return s.scheduler.WaitForShutdown(ctx)
}
