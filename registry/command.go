package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/loomtest/loom/types"
)

// SkipExitCode marks a skipped test (automake convention).
const SkipExitCode = 77

// outputTailBytes bounds how much command output is kept for diagnostics.
const outputTailBytes = 4096

// commandTest builds the run function for one command-backed test. Exit code
// zero is a pass, SkipExitCode a skip, any other exit code a failure carrying
// the output tail. A command that cannot be started at all is an execution
// fault and surfaces as an Exception.
func commandTest(spec TestSpec) types.TestFunc {
	return func(ctx context.Context, report types.ProgressFunc) (types.Result, error) {
		if spec.Skip != "" {
			return types.Result{Outcome: types.OutcomeSkip, Detail: spec.Skip}, nil
		}

		runCtx := ctx
		if spec.Timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, time.Duration(spec.Timeout))
			defer cancel()
		}

		report(types.Progress{Message: fmt.Sprintf("running %s", spec.Command[0])})

		cmd := exec.CommandContext(runCtx, spec.Command[0], spec.Command[1:]...)
		cmd.Dir = spec.Dir
		cmd.Env = os.Environ()
		for k, v := range spec.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}

		var output bytes.Buffer
		cmd.Stdout = &output
		cmd.Stderr = &output

		start := time.Now()
		runErr := cmd.Run()
		duration := time.Since(start)

		// Run-wide cancellation flows out to the executor untouched
		if ctx.Err() != nil {
			return types.Result{}, ctx.Err()
		}

		if runCtx.Err() != nil {
			return types.Result{
				Outcome:  types.OutcomeFail,
				Detail:   fmt.Sprintf("timed out after %v", time.Duration(spec.Timeout)),
				Duration: duration,
			}, nil
		}

		if runErr == nil {
			return types.Result{Outcome: types.OutcomePass, Duration: duration}, nil
		}

		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			if exitErr.ExitCode() == SkipExitCode {
				return types.Result{Outcome: types.OutcomeSkip, Duration: duration}, nil
			}
			return types.Result{
				Outcome:  types.OutcomeFail,
				Detail:   outputTail(&output),
				Duration: duration,
			}, nil
		}

		return types.Result{}, fmt.Errorf("failed to run %s: %w", spec.Command[0], runErr)
	}
}

// outputTail returns the trailing portion of captured output.
func outputTail(buf *bytes.Buffer) string {
	b := buf.Bytes()
	if len(b) > outputTailBytes {
		b = b[len(b)-outputTailBytes:]
	}
	return strings.TrimSpace(string(b))
}
