package runner

import (
	"time"

	"github.com/loomtest/loom/pool"
	"github.com/loomtest/loom/types"
)

// Options carries the per-run settings the engine reads. It is the
// configuration lookup the orchestrator and enumerator consume.
type Options struct {
	// Concurrency is the maximum number of tests executing at once.
	// Zero means auto-determine from the machine and workload.
	Concurrency int

	// Timeout bounds each individual test. Zero means no per-test deadline.
	Timeout time.Duration
}

type testEntry struct {
	name   string
	launch pool.Action
	cell   *types.StatusCell
}

// TestMap is the dense index -> (launch action, status cell) table built
// during enumeration. Entries are created once and never removed, so indices
// are contiguous over [0, Len()).
type TestMap struct {
	entries []testEntry
}

// Enumerate walks the tree and assigns each leaf test, in traversal order, a
// sequential index, a fresh NotStarted cell, and a launch action binding the
// test's run function to that cell. Enumeration is single-threaded; no
// concurrency begins until the actions are handed to a pool.
func Enumerate(tree *types.Tree, opts Options) *TestMap {
	tm := &TestMap{}
	tree.Walk(func(path string, test *types.Test) {
		cell := types.NewStatusCell()
		tm.entries = append(tm.entries, testEntry{
			name:   path,
			launch: newLaunchAction(test, cell, opts),
			cell:   cell,
		})
	})
	return tm
}

// Len returns the number of enumerated tests.
func (m *TestMap) Len() int {
	return len(m.entries)
}

// Actions returns the launch actions in index order.
func (m *TestMap) Actions() []pool.Action {
	actions := make([]pool.Action, len(m.entries))
	for i, e := range m.entries {
		actions[i] = e.launch
	}
	return actions
}

// StatusMap extracts the observable view of the run.
func (m *TestMap) StatusMap() *StatusMap {
	sm := &StatusMap{
		names: make([]string, len(m.entries)),
		cells: make([]*types.StatusCell, len(m.entries)),
	}
	for i, e := range m.entries {
		sm.names[i] = e.name
		sm.cells[i] = e.cell
	}
	return sm
}
