package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/t3ns/internal/snapshot"
)

// execute runs the root command with args and captures both streams.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// executeJSON runs a command with --format json and decodes the response.
func executeJSON(t *testing.T, args ...string) (CLIResponse, error) {
	t.Helper()
	out, _, err := execute(t, append(args, "--format", "json")...)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp, err
}

func writeRun(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

const chainRun = `
symmetries: ["U1", "SU2"]
target: [4, 0]
network: chain: 4
sectors: maxdim: 4
seed: 7
`

func seniorityRun(target string) string {
	return `
symmetries: ["U1", "SENIORITY"]
target: ` + target + `
network: chain: 2
`
}

func initSnapshot(t *testing.T, runSrc string) (dir string, resp CLIResponse) {
	t.Helper()
	dir = t.TempDir()
	resp, err := executeJSON(t, "init", writeRun(t, runSrc), "--out", dir)
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Status)
	return dir, resp
}

func TestInit(t *testing.T) {
	dir, resp := initSnapshot(t, chainRun)

	data := resp.Data.(map[string]any)
	assert.Equal(t, snapshot.FilePath(dir), data["path"])
	assert.Equal(t, []any{"U1", "SU2"}, data["symmetries"])
	assert.Equal(t, []any{"4", "0"}, data["target"])
	assert.Equal(t, float64(5), data["bonds"])
	assert.Equal(t, float64(4), data["sites"])
	assert.NotEmpty(t, data["digest"])
	assert.FileExists(t, snapshot.FilePath(dir))
}

func TestInitIsDeterministic(t *testing.T) {
	_, a := initSnapshot(t, chainRun)
	_, b := initSnapshot(t, chainRun)
	assert.Equal(t, a.Data.(map[string]any)["digest"], b.Data.(map[string]any)["digest"])
}

func TestInitTextOutput(t *testing.T) {
	dir := t.TempDir()
	out, _, err := execute(t, "init", writeRun(t, chainRun), "-o", dir, "--codec", "lz4")
	require.NoError(t, err)
	assert.Contains(t, out, "Snapshot written to "+snapshot.FilePath(dir))
	assert.Contains(t, out, "symmetries: U1 x SU2")
	assert.Contains(t, out, "bonds: 5, sites: 4")
}

func TestInitErrors(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		resp, err := executeJSON(t, "init", filepath.Join(t.TempDir(), "nope.cue"))
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Equal(t, "E005", resp.Error.Code)
	})

	t.Run("unreachable target", func(t *testing.T) {
		resp, err := executeJSON(t, "init", writeRun(t, `
symmetries: ["U1"]
target: [9]
network: chain: 2
`), "-o", t.TempDir())
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Equal(t, "TARGET_STATE_INCOMPATIBLE", resp.Error.Code)
	})

	t.Run("bad codec", func(t *testing.T) {
		_, err := executeJSON(t, "init", writeRun(t, chainRun), "-o", t.TempDir(), "--codec", "gzip")
		assert.Equal(t, ExitFailure, GetExitCode(err))
	})
}

func TestInspect(t *testing.T) {
	dir, initResp := initSnapshot(t, chainRun)

	resp, err := executeJSON(t, "inspect", dir)
	require.NoError(t, err)
	data := resp.Data.(map[string]any)
	assert.Equal(t, initResp.Data.(map[string]any)["digest"], data["digest"])

	structure := data["structure"].(map[string]any)
	assert.Equal(t, []any{"U1", "SU2"}, structure["symmetries"])
	assert.Equal(t, []any{"4", "0"}, structure["target"])
	assert.Len(t, structure["tensors"], 4)

	out, _, err := execute(t, "inspect", snapshot.FilePath(dir))
	require.NoError(t, err)
	assert.Contains(t, out, "symmetries: U1 x SU2")
	assert.Contains(t, out, "(open)")
	assert.Contains(t, out, "orbital 3")
}

func TestInspectMissingSnapshot(t *testing.T) {
	resp, err := executeJSON(t, "inspect", filepath.Join(t.TempDir(), "T3NScalc.db"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestValidate(t *testing.T) {
	dir, _ := initSnapshot(t, chainRun)

	resp, err := executeJSON(t, "validate", dir)
	require.NoError(t, err)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, float64(4), data["tensors"])
	assert.NotContains(t, data, "migration")

	resp, err = executeJSON(t, "validate", dir, "--run", writeRun(t, chainRun))
	require.NoError(t, err)
	assert.Equal(t, "compatible", resp.Data.(map[string]any)["migration"])
}

func TestValidateRejectsOtherSymmetries(t *testing.T) {
	dir, _ := initSnapshot(t, chainRun)

	resp, err := executeJSON(t, "validate", dir, "--run", writeRun(t, `
symmetries: ["Z2", "U1", "SU2"]
target: [0, 4, 0]
network: chain: 4
`))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "SYMMETRY_CONFIGURATION_MISMATCH", resp.Error.Code)
}

func TestMigrateSeniority(t *testing.T) {
	dir, _ := initSnapshot(t, seniorityRun("[2, 2]"))
	out := t.TempDir()

	resp, err := executeJSON(t, "migrate", writeRun(t, seniorityRun("[2, 0]")), dir, "-o", out)
	require.NoError(t, err)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "seniority-adjustable", data["migration"])
	assert.Equal(t, []any{"2", "0"}, data["target"])
	assert.Equal(t, snapshot.FilePath(out), data["path"])

	// the migrated snapshot now carries the narrowed target
	resp, err = executeJSON(t, "inspect", out)
	require.NoError(t, err)
	structure := resp.Data.(map[string]any)["structure"].(map[string]any)
	assert.Equal(t, []any{"2", "0"}, structure["target"])
}

func TestMigrateDryRun(t *testing.T) {
	dir, _ := initSnapshot(t, seniorityRun("[2, 2]"))
	out := t.TempDir()

	resp, err := executeJSON(t, "migrate", writeRun(t, seniorityRun("[2, 2]")), dir, "-o", out, "--dry-run")
	require.NoError(t, err)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "compatible", data["migration"])
	assert.NotContains(t, data, "path")
	assert.NoFileExists(t, snapshot.FilePath(out))
}

func TestMigrateIncompatible(t *testing.T) {
	dir, _ := initSnapshot(t, seniorityRun("[2, 2]"))

	resp, err := executeJSON(t, "migrate", writeRun(t, seniorityRun("[4, 2]")), dir, "--dry-run")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, "TARGET_STATE_INCOMPATIBLE", resp.Error.Code)
}

func TestIrrep(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		resp, err := executeJSON(t, "irrep", "-s", "Z2,U1,C2v", "1, -3, b1")
		require.NoError(t, err)
		data := resp.Data.(map[string]any)
		assert.Equal(t, []any{[]any{"1", "-3", "B1"}}, data["labels"])
	})

	t.Run("fuse", func(t *testing.T) {
		resp, err := executeJSON(t, "irrep", "-s", "Z2,U1,SU2", "1,1,1", "1,1,1")
		require.NoError(t, err)
		data := resp.Data.(map[string]any)
		assert.Equal(t, []any{
			[]any{"0", "2", "0"},
			[]any{"0", "2", "2"},
		}, data["fusions"])
	})

	t.Run("fusable", func(t *testing.T) {
		resp, err := executeJSON(t, "irrep", "-s", "Z2,U1,SU2", "1,1,1", "1,1,1", "0,2,4")
		require.NoError(t, err)
		assert.Equal(t, false, resp.Data.(map[string]any)["fusable"])
	})

	t.Run("text", func(t *testing.T) {
		out, _, err := execute(t, "irrep", "-s", "U1,SU2", "1,1", "1,1")
		require.NoError(t, err)
		assert.Contains(t, out, "(1, 1) x (1, 1) -> (2, 0) + (2, 2)")
	})

	t.Run("invalid label", func(t *testing.T) {
		resp, err := executeJSON(t, "irrep", "-s", "Z2,U1", "2,1")
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Equal(t, "INVALID_IRREP_TEXT", resp.Error.Code)
	})

	t.Run("unknown symmetry", func(t *testing.T) {
		_, err := executeJSON(t, "irrep", "-s", "U7", "1")
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}
