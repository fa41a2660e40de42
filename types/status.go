package types

import (
	"fmt"
	"time"
)

// Outcome represents the verdict a test computes for itself
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	OutcomeSkip Outcome = "skip"
)

// Result captures the outcome of a single completed test
type Result struct {
	Outcome  Outcome
	Detail   string        // Optional explanation (failure message, skip reason)
	Duration time.Duration // Track test execution time
}

// Passed reports whether the result counts as passing.
// Skipped tests pass only when allowSkips is set.
func (r Result) Passed(allowSkips bool) bool {
	switch r.Outcome {
	case OutcomePass:
		return true
	case OutcomeSkip:
		return allowSkips
	default:
		return false
	}
}

// Progress is an opaque, test-supplied descriptor of partial completion
type Progress struct {
	Fraction float64 // Completion fraction in [0,1]
	Message  string  // Free-form description of the current step
}

// StatusKind identifies which variant a Status holds
type StatusKind int

const (
	StatusNotStarted StatusKind = iota
	StatusExecuting
	StatusException
	StatusDone
)

func (k StatusKind) String() string {
	switch k {
	case StatusNotStarted:
		return "not_started"
	case StatusExecuting:
		return "executing"
	case StatusException:
		return "exception"
	case StatusDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Status is the lifecycle state of one test. Exactly one payload field is
// meaningful, selected by Kind:
//
//   - StatusNotStarted: no payload
//   - StatusExecuting:  Progress
//   - StatusException:  Err
//   - StatusDone:       Result
//
// Valid transitions move forward only:
// NotStarted -> Executing* -> {Exception | Done}.
type Status struct {
	Kind     StatusKind
	Progress Progress
	Result   Result
	Err      error
}

// NotStarted returns the initial status.
func NotStarted() Status {
	return Status{Kind: StatusNotStarted}
}

// Executing returns an in-flight status carrying the latest progress report.
func Executing(p Progress) Status {
	return Status{Kind: StatusExecuting, Progress: p}
}

// Errored returns the terminal status for a test whose execution raised an
// ordinary fault rather than producing a Result.
func Errored(err error) Status {
	return Status{Kind: StatusException, Err: err}
}

// Done returns the terminal status for a test that completed normally.
func Done(r Result) Status {
	return Status{Kind: StatusDone, Result: r}
}

// Terminal reports whether the status is final. Terminal statuses are never
// overwritten.
func (s Status) Terminal() bool {
	return s.Kind == StatusException || s.Kind == StatusDone
}

func (s Status) String() string {
	switch s.Kind {
	case StatusExecuting:
		return fmt.Sprintf("executing (%.0f%% %s)", s.Progress.Fraction*100, s.Progress.Message)
	case StatusException:
		return fmt.Sprintf("exception: %v", s.Err)
	case StatusDone:
		return fmt.Sprintf("done (%s)", s.Result.Outcome)
	default:
		return s.Kind.String()
	}
}
