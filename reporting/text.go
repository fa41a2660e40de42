// Package reporting writes machine-friendly run summaries to disk.
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/loomtest/loom/runner"
	"github.com/loomtest/loom/types"
)

// TextSummarySink writes a plain-text summary of a finished run. Captured
// test output may contain terminal escape sequences; the sink strips them so
// summaries stay readable in editors and CI artifacts.
type TextSummarySink struct {
	baseDir string
}

// NewTextSummarySink creates a sink writing under baseDir.
func NewTextSummarySink(baseDir string) *TextSummarySink {
	return &TextSummarySink{baseDir: baseDir}
}

// Complete writes the summary file for a run and returns its path.
func (s *TextSummarySink) Complete(run *runner.Run, passed bool) (string, error) {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(s.baseDir, fmt.Sprintf("summary-%s.txt", run.ID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer f.Close()

	if err := WriteSummary(f, run, passed); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSummary renders the run summary to w.
func WriteSummary(w io.Writer, run *runner.Run, passed bool) error {
	verdict := "PASS"
	if !passed {
		verdict = "FAIL"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %s\n", run.ID, verdict)
	fmt.Fprintf(&b, "Started: %s\n", run.Started.Format(time.RFC3339))
	fmt.Fprintf(&b, "Tests: %d\n\n", run.Status.Len())

	for i, s := range run.Status.Snapshot() {
		fmt.Fprintf(&b, "[%d] %s: %s\n", i, run.Status.Name(i), statusLine(s))
		detail := statusDetail(s)
		if detail != "" {
			for _, line := range strings.Split(stripansi.Strip(detail), "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func statusLine(s types.Status) string {
	switch s.Kind {
	case types.StatusDone:
		if s.Result.Duration > 0 {
			return fmt.Sprintf("%s (%.1fs)", s.Result.Outcome, s.Result.Duration.Seconds())
		}
		return string(s.Result.Outcome)
	case types.StatusException:
		return "error"
	default:
		return s.Kind.String()
	}
}

func statusDetail(s types.Status) string {
	switch s.Kind {
	case types.StatusDone:
		return s.Result.Detail
	case types.StatusException:
		return s.Err.Error()
	default:
		return ""
	}
}
