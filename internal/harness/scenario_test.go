package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeRun writes a one-site U1 run configuration into dir.
func writeRun(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "run.cue")
	require.NoError(t, os.WriteFile(path, []byte("symmetries: [\"U1\"]\ntarget: [2]\nnetwork: chain: 1\n"), 0644))
	return path
}

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir)
	path := writeScenario(t, dir, `
name: test_scenario
description: "Round trip"
run: run.cue
steps:
  - action: fresh
  - action: save
  - action: load
    expect:
      migration: compatible
assertions:
  - type: sectors
    bond: 1
    irreps: ["(2)"]
    dims: [1]
  - type: integrity
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "run.cue"), scenario.Run)
	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, ActionLoad, scenario.Steps[2].Action)
	require.NotNil(t, scenario.Steps[2].Expect)
	assert.Equal(t, "compatible", scenario.Steps[2].Expect.Migration)
	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, []int{1}, scenario.Assertions[0].Dims)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	dir := t.TempDir()
	writeRun(t, dir)
	path := writeScenario(t, dir, `
name: typo
description: "typo"
run: run.cue
steps:
  - action: fresh
assertion:
  - type: integrity
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nrun: run.cue\nsteps:\n  - action: fresh\n",
			wantErr: "name is required",
		},
		{
			name:    "missing run file",
			content: "name: n\ndescription: d\nrun: other.cue\nsteps:\n  - action: fresh\n",
			wantErr: "run configuration not found",
		},
		{
			name:    "unknown store",
			content: "name: n\ndescription: d\nrun: run.cue\nstore: hdf5\nsteps:\n  - action: fresh\n",
			wantErr: `unknown store "hdf5"`,
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\nrun: run.cue\nsteps: []\n",
			wantErr: "steps list is required",
		},
		{
			name:    "unknown action",
			content: "name: n\ndescription: d\nrun: run.cue\nsteps:\n  - action: sweep\n",
			wantErr: `steps[0]: unknown action "sweep"`,
		},
		{
			name:    "codec on memory store",
			content: "name: n\ndescription: d\nrun: run.cue\nsteps:\n  - action: save\n    codec: lz4\n",
			wantErr: "codec needs the sqlite store",
		},
		{
			name:    "unconfigured load with run",
			content: "name: n\ndescription: d\nrun: run.cue\nsteps:\n  - action: load\n    run: run.cue\n    unconfigured: true\n",
			wantErr: "run and unconfigured are exclusive",
		},
		{
			name:    "migration and error",
			content: "name: n\ndescription: d\nrun: run.cue\nsteps:\n  - action: load\n    expect:\n      migration: compatible\n      error: NOT_FOUND\n",
			wantErr: "migration and error are exclusive",
		},
		{
			name:    "migration on save",
			content: "name: n\ndescription: d\nrun: run.cue\nsteps:\n  - action: save\n    expect:\n      migration: compatible\n",
			wantErr: "migration only applies to load",
		},
		{
			name:    "target without labels",
			content: "name: n\ndescription: d\nrun: run.cue\nsteps:\n  - action: fresh\nassertions:\n  - type: target\n",
			wantErr: "labels are required for target",
		},
		{
			name:    "dims mismatch",
			content: "name: n\ndescription: d\nrun: run.cue\nsteps:\n  - action: fresh\nassertions:\n  - type: sectors\n    irreps: [\"(2)\"]\n    dims: [1, 2]\n",
			wantErr: "2 dims for 1 irreps",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nrun: run.cue\nsteps:\n  - action: fresh\nassertions:\n  - type: energy\n",
			wantErr: `unknown assertion type "energy"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeRun(t, dir)
			_, err := LoadScenario(writeScenario(t, dir, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, filepath.Base(path), scenario.Name+".yaml")
		})
	}
}
