package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopTest(ctx context.Context, report ProgressFunc) (Result, error) {
	return Result{Outcome: OutcomePass}, nil
}

func TestTreeWalkVisitsLeavesInOrder(t *testing.T) {
	tree := Group("root",
		Group("api",
			Case("login", noopTest),
			Case("logout", noopTest),
		),
		Case("smoke", noopTest),
		Group("db",
			Group("migrations",
				Case("up", noopTest),
			),
		),
	)

	var paths []string
	tree.Walk(func(path string, test *Test) {
		require.NotNil(t, test)
		paths = append(paths, path)
	})

	assert.Equal(t, []string{
		"root/api/login",
		"root/api/logout",
		"root/smoke",
		"root/db/migrations/up",
	}, paths)
}

func TestTreeCountTests(t *testing.T) {
	tests := []struct {
		name     string
		tree     *Tree
		expected int
	}{
		{"nil tree", nil, 0},
		{"empty group", Group("empty"), 0},
		{"single leaf", Case("only", noopTest), 1},
		{
			"nested groups",
			Group("root", Group("a", Case("t1", noopTest), Case("t2", noopTest)), Case("t3", noopTest)),
			3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.tree.CountTests())
		})
	}
}

func TestTreeGroupsAreTransparent(t *testing.T) {
	// Deeply nested single test: groups contribute naming but no entries
	tree := Group("a", Group("b", Group("c", Case("leaf", noopTest))))

	var visited []string
	tree.Walk(func(path string, test *Test) {
		visited = append(visited, path)
	})

	require.Len(t, visited, 1)
	assert.Equal(t, "a/b/c/leaf", visited[0])
}
