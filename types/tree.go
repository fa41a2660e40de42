package types

import (
	"context"
	"strings"
)

// ProgressFunc reports partial completion from inside a running test. It may
// be called any number of times, including zero.
type ProgressFunc func(Progress)

// TestFunc is the execution entry point of a single test. It computes its own
// Result; a returned error is an execution fault, not a test failure. The
// context carries run-wide cancellation and any per-test deadline.
type TestFunc func(ctx context.Context, report ProgressFunc) (Result, error)

// Test is a single runnable leaf in the tree.
type Test struct {
	Name string
	Run  TestFunc
}

// Tree is a hierarchical collection of named tests. A node is either a leaf
// carrying a Test, or a group carrying children. Groups contribute structure
// and naming only; they are transparent to enumeration.
type Tree struct {
	Name     string
	Test     *Test   // non-nil for leaves
	Children []*Tree // group children, nil for leaves
}

// Group builds a grouping node.
func Group(name string, children ...*Tree) *Tree {
	return &Tree{Name: name, Children: children}
}

// Case builds a leaf node for a single test.
func Case(name string, run TestFunc) *Tree {
	return &Tree{Name: name, Test: &Test{Name: name, Run: run}}
}

// Walk folds over the tree depth-first, visiting every leaf test in a
// deterministic order. The path passed to visit is the slash-joined chain of
// group names down to the leaf.
func (t *Tree) Walk(visit func(path string, test *Test)) {
	if t == nil {
		return
	}
	t.walk(nil, visit)
}

func (t *Tree) walk(prefix []string, visit func(path string, test *Test)) {
	path := prefix
	if t.Name != "" {
		path = append(path, t.Name)
	}
	if t.Test != nil {
		visit(strings.Join(path, "/"), t.Test)
		return
	}
	for _, child := range t.Children {
		child.walk(path, visit)
	}
}

// CountTests returns the number of leaf tests in the tree.
func (t *Tree) CountTests() int {
	n := 0
	t.Walk(func(string, *Test) { n++ })
	return n
}
