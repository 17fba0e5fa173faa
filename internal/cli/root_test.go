package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/config"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/integrals"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/integrals/sqlite"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/integrals/yamlfile"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/tensor"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/testutil"
)

// setup isolates HOME and the working directory and writes the two-orbital
// system as h2.yaml into the new working directory.
func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, yamlfile.NewLoader().Write(context.Background(), filepath.Join(dir, "h2.yaml"), testutil.TwoOrbitalSystem()))
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRoot_PlainOutput(t *testing.T) {
	setup(t)

	out, stderr, err := execute(t, "-o", "plain", "h2.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Nuclear Repulsion Energy: 0.500000\n"+
		"Number of Occupied Orbitals: 1\n"+
		"One-electron contribution: 2.000000\n"+
		"Two-electron contribution: 0.300000\n"+
		"Hartree-Fock Energy: 2.800000\n"+
		"MP2 Energy: 0.000000\n", out)
	assert.Contains(t, stderr, "one-electron integrals read successfully")
	assert.Contains(t, stderr, "two-electron integrals read successfully")
}

func TestRoot_Arity(t *testing.T) {
	setup(t)

	for _, args := range [][]string{{}, {"a.yaml", "b.yaml"}} {
		out, _, err := execute(t, args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected exactly one molecule file")
		assert.Contains(t, err.Error(), "Usage: hfmp2 [flags] <molecule_file>")
		assert.Empty(t, out)
	}
}

func TestRoot_DataDirAndJSON(t *testing.T) {
	dir := setup(t)
	t.Chdir(t.TempDir())

	out, _, err := execute(t, "--data-dir", dir, "--output", "json", "h2.yaml")
	require.NoError(t, err)

	var got struct {
		Source   string `json:"source"`
		Loader   string `json:"loader"`
		Energies struct {
			HF float64 `json:"hartree_fock"`
		} `json:"energies"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, filepath.Join(dir, "h2.yaml"), got.Source)
	assert.Equal(t, "yaml", got.Loader)
	assert.InDelta(t, 2.8, got.Energies.HF, 1e-12)
}

func TestRoot_ConfigFileAndEnv(t *testing.T) {
	dir := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("output: json\n"), 0o644))
	t.Setenv("HFMP2_OUTPUT", "plain")

	out, _, err := execute(t, "h2.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Hartree-Fock Energy: 2.800000")
}

func TestRoot_Errors(t *testing.T) {
	setup(t)

	_, _, err := execute(t, "missing.yaml")
	require.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = execute(t, "h2.h5")
	require.ErrorIs(t, err, integrals.ErrUnknownFormat)

	_, _, err = execute(t, "--max-tensor-bytes", "8", "h2.yaml")
	require.ErrorIs(t, err, tensor.ErrTooLarge)

	_, _, err = execute(t, "-o", "xml", "h2.yaml")
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRoot_Verbose(t *testing.T) {
	setup(t)

	_, stderr, err := execute(t, "-v", "--detect-conflicts", "--log-format", "json", "h2.yaml")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"two-electron tensor built"`)
	assert.Contains(t, stderr, `"run_id"`)
}

func TestConvert(t *testing.T) {
	dir := setup(t)

	out, _, err := execute(t, "convert", "h2.yaml", "h2.db")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote h2.db (sqlite, 2 orbitals, 1 two-electron records)")

	got, err := sqlite.NewStore().Load(context.Background(), filepath.Join(dir, "h2.db"))
	require.NoError(t, err)
	assert.Equal(t, testutil.TwoOrbitalSystem(), got)

	out, _, err = execute(t, "-o", "plain", "h2.db")
	require.NoError(t, err)
	assert.Contains(t, out, "Hartree-Fock Energy: 2.800000")

	_, _, err = execute(t, "convert", "h2.yaml", "h2.fcidump")
	require.ErrorIs(t, err, integrals.ErrUnknownFormat)

	_, _, err = execute(t, "convert", "h2.yaml")
	require.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	dir := setup(t)

	out, _, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote default config")

	cfg, used, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.FileName, used)
	assert.Equal(t, config.Default(), cfg)

	_, _, err = execute(t, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = execute(t, "config", "init", "--force")
	require.NoError(t, err)

	custom := filepath.Join(dir, "conf", "custom.yaml")
	_, _, err = execute(t, "config", "init", custom)
	require.NoError(t, err)
	assert.FileExists(t, custom)
}

func TestVersion(t *testing.T) {
	setup(t)

	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "hfmp2 v"+Version+"\n", out)
}
