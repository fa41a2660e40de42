package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/loomtest/loom/types"
)

const sampleManifest = `
name: nightly
suites:
  - name: smoke
    tests:
      - name: ping
        command: ["true"]
      - name: pong
        command: ["true"]
        timeout: 30s
  - name: db
    suites:
      - name: migrations
        tests:
          - name: up
            command: ["true"]
tests:
  - name: standalone
    command: ["true"]
`

func TestParseBuildsTree(t *testing.T) {
	tree, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)

	assert.Equal(t, 4, tree.CountTests())

	var paths []string
	tree.Walk(func(path string, test *types.Test) {
		paths = append(paths, path)
	})
	assert.Equal(t, []string{
		"nightly/smoke/ping",
		"nightly/smoke/pong",
		"nightly/db/migrations/up",
		"nightly/standalone",
	}, paths)
}

func TestParseDurations(t *testing.T) {
	var m Manifest
	data := []byte("tests:\n  - name: t\n    command: [\"true\"]\n    timeout: 1m30s\n")
	require.NoError(t, yaml.Unmarshal(data, &m))
	assert.Equal(t, 90*time.Second, time.Duration(m.Tests[0].Timeout))
}

func TestParseRejectsInvalidManifests(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{
			"nameless test",
			"tests:\n  - command: [\"true\"]\n",
			"has no name",
		},
		{
			"commandless test",
			"tests:\n  - name: empty\n",
			"has no command",
		},
		{
			"duplicate test",
			"tests:\n  - name: dup\n    command: [\"true\"]\n  - name: dup\n    command: [\"true\"]\n",
			"duplicate test",
		},
		{
			"nameless suite",
			"suites:\n  - tests:\n      - name: t\n        command: [\"true\"]\n",
			"has no name",
		},
		{
			"bad duration",
			"tests:\n  - name: t\n    command: [\"true\"]\n    timeout: soon\n",
			"invalid duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.manifest))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseSkipWithoutCommand(t *testing.T) {
	tree, err := Parse([]byte("tests:\n  - name: later\n    skip: not implemented yet\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, tree.CountTests())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read manifest")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))

	tree, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, tree.CountTests())
}
