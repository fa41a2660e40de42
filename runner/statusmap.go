package runner

import (
	"context"

	"github.com/loomtest/loom/types"
)

// StatusMap is the externally observable state of a run: one status cell per
// enumerated test, indexed densely from zero in enumeration order. Observers
// may read or wait on cells; they must never write them.
type StatusMap struct {
	names []string
	cells []*types.StatusCell
}

// Len returns the number of tests in the run.
func (m *StatusMap) Len() int {
	return len(m.cells)
}

// Name returns the slash-joined tree path of the test at index i.
func (m *StatusMap) Name(i int) string {
	return m.names[i]
}

// Cell returns the status cell of the test at index i.
func (m *StatusMap) Cell(i int) *types.StatusCell {
	return m.cells[i]
}

// Snapshot reads every cell once and returns the statuses in index order.
func (m *StatusMap) Snapshot() []types.Status {
	statuses := make([]types.Status, len(m.cells))
	for i, cell := range m.cells {
		statuses[i] = cell.Load()
	}
	return statuses
}

// Finished reports whether every test has reached a terminal status. The run
// has no explicit completion state; this is the emergent property observers
// use to answer "is the run done".
func (m *StatusMap) Finished() bool {
	for _, cell := range m.cells {
		if !cell.Load().Terminal() {
			return false
		}
	}
	return true
}

// WaitFinished blocks until every cell is terminal or the context is done.
func (m *StatusMap) WaitFinished(ctx context.Context) error {
	for _, cell := range m.cells {
		if _, err := cell.WaitTerminal(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Verdict folds the current snapshot into an overall pass/fail. A run passes
// when every test is Done with a passing result; any Exception, failure, or
// unfinished test fails it. An empty run passes vacuously.
func (m *StatusMap) Verdict(allowSkips bool) bool {
	for _, cell := range m.cells {
		status := cell.Load()
		if status.Kind != types.StatusDone || !status.Result.Passed(allowSkips) {
			return false
		}
	}
	return true
}
