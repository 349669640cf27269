package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenarios lays out a scenario directory with one passing and one
// failing scenario.
func writeScenarios(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"run.cue": "symmetries: [\"U1\"]\ntarget: [2]\nnetwork: chain: 1\n",
		"roundtrip.yaml": `name: roundtrip
description: save and load
run: run.cue
steps:
  - action: fresh
  - action: save
  - action: load
assertions:
  - type: integrity
  - type: digest_stable
`,
		"wrong_target.yaml": `name: wrong_target
description: asserts the wrong target
run: run.cue
steps:
  - action: fresh
assertions:
  - type: target
    labels: ["4"]
`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandMissingDir(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandFilter(t *testing.T) {
	dir := writeScenarios(t)

	out, _, err := execute(t, "test", dir, "--filter", "round*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ roundtrip")
	assert.NotContains(t, out, "wrong_target")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandFailure(t *testing.T) {
	dir := writeScenarios(t)

	resp, err := executeJSON(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, data["passed"])
	assert.EqualValues(t, 1, data["failed"])
}

func TestTestCommandGolden(t *testing.T) {
	dir := writeScenarios(t)
	golden := filepath.Join(t.TempDir(), "golden")

	out, _, err := execute(t, "test", dir, "--filter", "roundtrip", "--golden", golden, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")
	require.FileExists(t, filepath.Join(golden, "roundtrip.golden"))

	_, err = executeJSON(t, "test", dir, "--filter", "roundtrip", "--golden", golden)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(golden, "roundtrip.golden"), []byte("{}"), 0o644))
	out, _, err = execute(t, "test", dir, "--filter", "roundtrip", "--golden", golden)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}
