// Package runner turns a test tree into a set of independently schedulable
// units and drives their concurrent execution.
//
// The main components are:
//   - Enumerate: Flattens the tree into a dense index -> (action, cell) table
//   - launch actions: Wrap one test's run function, publishing its lifecycle
//     into a StatusCell and classifying faults
//   - Orchestrator: Composes enumeration with the worker pool; Launch starts
//     a run without waiting for it, ExecuteWithRunner drives it to a verdict
//   - StatusMap: The externally observable view of a run, one cell per test
//   - ConsoleRunner: Reference observer that renders progress and computes
//     the overall pass/fail verdict
//
// Per-test faults are contained at the single-test boundary and surface as
// Exception statuses; context cancellation is never contained and aborts the
// whole run.
package runner
