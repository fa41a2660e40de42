package reporting

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomtest/loom/runner"
	"github.com/loomtest/loom/types"
)

func finishedRun(t *testing.T) *runner.Run {
	t.Helper()
	tree := types.Group("root",
		types.Case("passes", func(ctx context.Context, report types.ProgressFunc) (types.Result, error) {
			return types.Result{Outcome: types.OutcomePass}, nil
		}),
		types.Case("fails", func(ctx context.Context, report types.ProgressFunc) (types.Result, error) {
			// Output with terminal colors, as test tooling often emits
			return types.Result{Outcome: types.OutcomeFail, Detail: "\x1b[31mexpected 2, got 3\x1b[0m"}, nil
		}),
	)

	o := runner.NewOrchestrator(runner.Options{}, log.New(io.Discard))
	run := o.Launch(context.Background(), tree)
	require.NoError(t, run.Wait())
	return run
}

func TestWriteSummaryStripsANSI(t *testing.T) {
	run := finishedRun(t)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, run, false))

	out := buf.String()
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "root/passes: pass")
	assert.Contains(t, out, "expected 2, got 3")
	assert.NotContains(t, out, "\x1b[31m", "escape sequences must be stripped")
}

func TestTextSummarySinkWritesFile(t *testing.T) {
	run := finishedRun(t)

	sink := NewTextSummarySink(t.TempDir())
	path, err := sink.Complete(run, false)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), run.ID)
	assert.Contains(t, string(data), "Tests: 2")
}
