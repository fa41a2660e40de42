// Package registry loads the test manifest and builds the runnable test
// tree. A manifest is a YAML document describing nested suites of
// command-backed tests.
package registry

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/loomtest/loom/types"
)

// Duration wraps time.Duration with YAML support for values like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// TestSpec describes one command-backed test.
type TestSpec struct {
	Name    string            `yaml:"name"`
	Command []string          `yaml:"command"`
	Env     map[string]string `yaml:"env,omitempty"`
	Dir     string            `yaml:"dir,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Skip    string            `yaml:"skip,omitempty"` // Non-empty skips the test with this reason
}

// Suite groups tests and nested suites under a name.
type Suite struct {
	Name   string     `yaml:"name"`
	Suites []Suite    `yaml:"suites,omitempty"`
	Tests  []TestSpec `yaml:"tests,omitempty"`
}

// Manifest is the root of the test definition file.
type Manifest struct {
	Name   string     `yaml:"name,omitempty"`
	Suites []Suite    `yaml:"suites,omitempty"`
	Tests  []TestSpec `yaml:"tests,omitempty"`
}

// Load reads and parses a manifest file and builds the test tree.
func Load(path string) (*types.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds the test tree from manifest bytes.
func Parse(data []byte) (*types.Tree, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m.Tree(), nil
}

func (m *Manifest) validate() error {
	seen := make(map[string]bool)
	var walkSuite func(prefix string, s Suite) error

	checkTest := func(prefix string, t TestSpec) error {
		if t.Name == "" {
			return fmt.Errorf("test under %q has no name", prefix)
		}
		if len(t.Command) == 0 && t.Skip == "" {
			return fmt.Errorf("test %s/%s has no command", prefix, t.Name)
		}
		key := prefix + "/" + t.Name
		if seen[key] {
			return fmt.Errorf("duplicate test %s", key)
		}
		seen[key] = true
		return nil
	}

	walkSuite = func(prefix string, s Suite) error {
		if s.Name == "" {
			return fmt.Errorf("suite under %q has no name", prefix)
		}
		prefix = prefix + "/" + s.Name
		for _, child := range s.Suites {
			if err := walkSuite(prefix, child); err != nil {
				return err
			}
		}
		for _, t := range s.Tests {
			if err := checkTest(prefix, t); err != nil {
				return err
			}
		}
		return nil
	}

	root := m.rootName()
	for _, s := range m.Suites {
		if err := walkSuite(root, s); err != nil {
			return err
		}
	}
	for _, t := range m.Tests {
		if err := checkTest(root, t); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manifest) rootName() string {
	if m.Name != "" {
		return m.Name
	}
	return "tests"
}

// Tree converts the manifest into the runnable tree. Suites become groups,
// tests become leaves bound to a command runner.
func (m *Manifest) Tree() *types.Tree {
	var buildSuite func(s Suite) *types.Tree
	buildSuite = func(s Suite) *types.Tree {
		children := make([]*types.Tree, 0, len(s.Suites)+len(s.Tests))
		for _, child := range s.Suites {
			children = append(children, buildSuite(child))
		}
		for _, t := range s.Tests {
			children = append(children, types.Case(t.Name, commandTest(t)))
		}
		return types.Group(s.Name, children...)
	}

	children := make([]*types.Tree, 0, len(m.Suites)+len(m.Tests))
	for _, s := range m.Suites {
		children = append(children, buildSuite(s))
	}
	for _, t := range m.Tests {
		children = append(children, types.Case(t.Name, commandTest(t)))
	}
	return types.Group(m.rootName(), children...)
}
