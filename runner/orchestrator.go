package runner

import (
	"context"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/loomtest/loom/pool"
	"github.com/loomtest/loom/types"
)

// MaxAutoConcurrency caps auto-determined concurrency to avoid resource
// exhaustion on large machines.
const MaxAutoConcurrency = 16

// Runner observes a launched run and decides the overall verdict. It is
// expected to block until it has seen enough status to render a final report.
// A nil error means the returned bool is the verdict; cancellation surfaces
// as a non-nil error with no verdict.
type Runner interface {
	Run(ctx context.Context, tree *types.Tree, status *StatusMap) (bool, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, tree *types.Tree, status *StatusMap) (bool, error)

func (f RunnerFunc) Run(ctx context.Context, tree *types.Tree, status *StatusMap) (bool, error) {
	return f(ctx, tree, status)
}

// Run is the handle for one launched test run.
type Run struct {
	ID      string
	Status  *StatusMap
	Started time.Time

	handle *pool.Handle
}

// Done returns a channel closed once the worker pool has wound down.
func (r *Run) Done() <-chan struct{} {
	return r.handle.Done()
}

// Wait blocks until the pool has wound down and returns the cancellation
// error that aborted the run, if any.
func (r *Run) Wait() error {
	return r.handle.Wait()
}

// Orchestrator composes the enumerator, the executors, and the worker pool.
type Orchestrator struct {
	opts Options
	log  *log.Logger
}

// NewOrchestrator creates an orchestrator for the given options.
func NewOrchestrator(opts Options, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	if opts.Concurrency > 32 {
		logger.Warn("Very high concurrency requested", "concurrency", opts.Concurrency)
	}
	return &Orchestrator{opts: opts, log: logger}
}

// Launch enumerates the tree, hands every launch action to the worker pool
// under the configured concurrency limit, and returns the run handle
// immediately. It never waits for a test to finish; observers watch the
// status map while tests are still in flight.
func (o *Orchestrator) Launch(ctx context.Context, tree *types.Tree) *Run {
	tm := Enumerate(tree, o.opts)
	limit := determineConcurrency(o.opts.Concurrency, tm.Len())

	run := &Run{
		ID:      uuid.NewString(),
		Status:  tm.StatusMap(),
		Started: time.Now(),
		handle:  pool.Run(ctx, tm.Actions(), limit),
	}
	o.log.Info("Launched test run", "run_id", run.ID, "tests", tm.Len(), "concurrency", limit)
	return run
}

// ExecuteWithRunner launches the tree and drives the supplied Runner to a
// verdict. A cancellation anywhere in the run propagates out as the returned
// error; no verdict is produced in that case.
func (o *Orchestrator) ExecuteWithRunner(ctx context.Context, r Runner, tree *types.Tree) (bool, error) {
	run := o.Launch(ctx, tree)

	passed, err := r.Run(ctx, tree, run.Status)
	if err != nil {
		return false, err
	}
	if werr := run.Wait(); werr != nil {
		return false, werr
	}

	o.log.Info("Test run finished", "run_id", run.ID, "passed", passed, "duration", time.Since(run.Started))
	return passed, nil
}

// determineConcurrency resolves the effective worker count. A zero user value
// auto-determines from the machine, and the result never exceeds the number
// of work items.
func determineConcurrency(userConcurrency, numWorkItems int) int {
	if numWorkItems == 0 {
		return 1
	}

	concurrency := userConcurrency
	if concurrency <= 0 {
		concurrency = min(runtime.NumCPU(), MaxAutoConcurrency)
	}
	return min(concurrency, numWorkItems)
}
