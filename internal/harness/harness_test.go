package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestRunWithGolden_UnconfiguredDefaults pins the full dispatch trace of a
// scenario with no configured rules.
func TestRunWithGolden_UnconfiguredDefaults(t *testing.T) {
	RunWithGolden(t, filepath.Join("testdata", "unconfigured-defaults.yaml"))
}

// TestLoadScenario_Validation tests the strict-parse and validation paths.
func TestLoadScenario_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: s\nmethodz: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			yaml: "methods:\n  - name: M\nsteps:\n  - call: M\n",
			want: "name is required",
		},
		{
			name: "missing steps",
			yaml: "name: s\nmethods:\n  - name: M\n",
			want: "at least one step",
		},
		{
			name: "duplicate method",
			yaml: "name: s\nmethods:\n  - name: M\n  - name: M\nsteps:\n  - call: M\n",
			want: "duplicate method",
		},
		{
			name: "unknown type",
			yaml: "name: s\nmethods:\n  - name: M\n    returns: [complex128]\nsteps:\n  - call: M\n",
			want: "unknown type",
		},
		{
			name: "undeclared method",
			yaml: "name: s\nmethods:\n  - name: M\nsteps:\n  - call: Other\n",
			want: "undeclared method",
		},
		{
			name: "arg count mismatch",
			yaml: "name: s\nmethods:\n  - name: M\n    params: [string]\nsteps:\n  - call: M\n",
			want: "takes 1 args, got 0",
		},
	}

	dir := t.TempDir()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, dir, "scenario.yaml", tc.yaml)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

// TestLoadScenario_MissingFile tests the read error path.
func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestRun_FixtureStubs tests fixture application end to end: the stub
// serves within its bound, then the catch-all takes over.
func TestRun_FixtureStubs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "counter.cue", `
fixture: {
	name: "counter"
	stubs: {
		Count: {
			returns: [41]
			times:   1
		}
	}
}
`)
	path := writeFile(t, dir, "scenario.yaml", `
name: fixture-stubs
fixtures:
  - counter.cue
methods:
  - name: Count
    returns: [int]
steps:
  - call: Count
    expect:
      returns: [41]
      rule: "fixture:Count"
  - call: Count
    expect:
      returns: [0]
      rule: default-return
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	tr, err := Run(s, dir)
	require.NoError(t, err)

	require.Len(t, tr.Events, 2)
	assert.Equal(t, "fixture:Count", tr.Events[0].Rule)
	assert.Equal(t, "default-return", tr.Events[1].Rule)
	assert.Equal(t, int64(1), tr.Events[0].Seq)
	assert.Equal(t, int64(2), tr.Events[1].Seq)
}

// TestRun_ExpectationMismatch tests that a wrong expected rule fails the
// run with the step position in the error.
func TestRun_ExpectationMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scenario.yaml", `
name: mismatch
methods:
  - name: Greet
    returns: [string]
steps:
  - call: Greet
    expect:
      rule: "fixture:Greet"
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	_, err = Run(s, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")
	assert.Contains(t, err.Error(), "expected rule")
}

// TestRun_ArgsCarriedIntoTrace tests that step arguments survive into the
// trace events.
func TestRun_ArgsCarriedIntoTrace(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scenario.yaml", `
name: args
methods:
  - name: Store
    params: [string, int]
steps:
  - call: Store
    args: ["key", 7]
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	tr, err := Run(s, dir)
	require.NoError(t, err)

	require.Len(t, tr.Events, 1)
	assert.Equal(t, []any{"key", 7}, tr.Events[0].Args)
}

// TestRun_MissingFixture tests the fixture load error path.
func TestRun_MissingFixture(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scenario.yaml", `
name: missing-fixture
fixtures:
  - nowhere.cue
methods:
  - name: Greet
steps:
  - call: Greet
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	_, err = Run(s, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere.cue")
}
