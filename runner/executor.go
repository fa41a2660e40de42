package runner

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/loomtest/loom/pool"
	"github.com/loomtest/loom/types"
)

var tracer trace.Tracer = otel.Tracer("loom/runner")

// newLaunchAction binds one test's run function to its status cell. The
// resulting action drives the cell through its lifecycle:
//
//   - every progress report writes Executing(progress)
//   - a normal return writes Done(result)
//   - an ordinary fault (returned error, recovered panic, per-test timeout)
//     writes Exception(fault) and the action returns nil, leaving sibling
//     tests unaffected
//   - run-wide cancellation is never captured: the action returns the context
//     error without a terminal write, aborting the enclosing pool
//
// The action must be invoked at most once; the cell freezes after its single
// terminal write.
func newLaunchAction(test *types.Test, cell *types.StatusCell, opts Options) pool.Action {
	return func(ctx context.Context) error {
		return runTest(ctx, test, cell, opts.Timeout)
	}
}

func runTest(ctx context.Context, test *types.Test, cell *types.StatusCell, timeout time.Duration) error {
	ctx, span := tracer.Start(ctx, test.Name)
	defer span.End()

	testCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		testCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report := func(p types.Progress) {
		cell.Set(types.Executing(p))
	}

	start := time.Now()
	result, err := invoke(testCtx, test.Run, report)
	if err != nil {
		// Run-wide cancellation propagates; it must not be confused with a
		// fault the test itself produced.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		span.RecordError(err)
		cell.Set(types.Errored(err))
		return nil
	}

	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}
	cell.Set(types.Done(result))
	return nil
}

// invoke calls the test function, converting a panic into an ordinary fault.
// Cancellation is context-based in this engine, so a panic is never a
// cancellation signal.
func invoke(ctx context.Context, run types.TestFunc, report types.ProgressFunc) (result types.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("test panicked: %v", r)
		}
	}()
	return run(ctx, report)
}
