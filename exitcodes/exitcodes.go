// Package exitcodes defines the standard exit codes used by loom.
package exitcodes

// Exit code constants used by loom
//
// * Success (0): Used when all tests pass
// * TestFailure (1): Used when one or more tests fail
// * RuntimeErr (2): Used for runtime errors such as bad configuration,
//   panics, or an interrupted run
const (
	Success     = 0 // All tests pass
	TestFailure = 1 // Test failures
	RuntimeErr  = 2 // Runtime errors or interrupts
)
