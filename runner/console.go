package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/loomtest/loom/types"
)

// ConsoleRunner is the reference Runner. It logs periodic progress while
// tests are in flight, renders a results table once every cell is terminal,
// and folds the final statuses into the overall verdict.
type ConsoleRunner struct {
	Log              *log.Logger
	Out              io.Writer     // Table destination, defaults to stdout
	AllowSkips       bool          // Whether skipped tests count as passing
	ProgressInterval time.Duration // Interval between progress log lines, 0 disables
}

// NewConsoleRunner creates a console runner with progress reporting.
func NewConsoleRunner(logger *log.Logger, allowSkips bool, progressInterval time.Duration) *ConsoleRunner {
	if logger == nil {
		logger = log.Default()
	}
	return &ConsoleRunner{
		Log:              logger,
		Out:              os.Stdout,
		AllowSkips:       allowSkips,
		ProgressInterval: progressInterval,
	}
}

// WithOutput redirects the results table.
func (c *ConsoleRunner) WithOutput(w io.Writer) *ConsoleRunner {
	c.Out = w
	return c
}

// Run blocks until every test has reached a terminal status, then renders the
// results and returns the verdict. Cancellation while waiting is returned as
// an error in place of a verdict.
func (c *ConsoleRunner) Run(ctx context.Context, tree *types.Tree, status *StatusMap) (bool, error) {
	stopProgress := make(chan struct{})
	if c.ProgressInterval > 0 {
		go c.reportProgress(status, stopProgress)
	}

	err := status.WaitFinished(ctx)
	close(stopProgress)
	if err != nil {
		return false, err
	}

	c.renderTable(status)
	return status.Verdict(c.AllowSkips), nil
}

func (c *ConsoleRunner) reportProgress(status *StatusMap, stop <-chan struct{}) {
	ticker := time.NewTicker(c.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.logProgress(status)
		case <-stop:
			return
		}
	}
}

func (c *ConsoleRunner) logProgress(status *StatusMap) {
	snapshot := status.Snapshot()

	var executing, finished int
	var running []string
	for i, s := range snapshot {
		switch s.Kind {
		case types.StatusExecuting:
			executing++
			if len(running) < 3 {
				running = append(running, fmt.Sprintf("%s (%s)", status.Name(i), s.Progress.Message))
			}
		case types.StatusDone, types.StatusException:
			finished++
		}
	}

	var percent float64
	if len(snapshot) > 0 {
		percent = float64(finished) * 100.0 / float64(len(snapshot))
	}

	c.Log.Info("Progress update",
		"completed", finished,
		"total", len(snapshot),
		"percent", fmt.Sprintf("%.1f%%", percent),
		"numRunning", executing,
		"running", strings.Join(running, ", "))
}

func (c *ConsoleRunner) renderTable(status *StatusMap) {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"#", "Test", "Status", "Duration", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	var passed, failed, skipped, errored int
	for i, s := range status.Snapshot() {
		var statusStr, durationStr, errStr string
		switch s.Kind {
		case types.StatusDone:
			statusStr = resultString(s.Result.Outcome)
			durationStr = formatDuration(s.Result.Duration)
			errStr = firstLine(s.Result.Detail)
			switch s.Result.Outcome {
			case types.OutcomePass:
				passed++
			case types.OutcomeSkip:
				skipped++
			default:
				failed++
			}
		case types.StatusException:
			statusStr = "! error"
			errStr = firstLine(s.Err.Error())
			errored++
		default:
			statusStr = s.Kind.String()
		}
		t.AppendRow(table.Row{i, status.Name(i), statusStr, durationStr, errStr})
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d tests", status.Len()),
		fmt.Sprintf("%dP/%dF/%dS/%dE", passed, failed, skipped, errored),
		"", "",
	})

	if status.Verdict(c.AllowSkips) {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}
	t.Render()
}

// resultString returns a short marker for a test outcome.
func resultString(outcome types.Outcome) string {
	switch outcome {
	case types.OutcomePass:
		return "✓ pass"
	case types.OutcomeSkip:
		return "- skip"
	default:
		return "✗ fail"
	}
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func firstLine(s string) string {
	if idx := strings.Index(s, "\n"); idx != -1 {
		return s[:idx]
	}
	if len(s) > 80 {
		return s[:70] + "..."
	}
	return s
}
