package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-ratio/report"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env"), "--log-level", "error"))

	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestRunSynthesizesEmptyDir(t *testing.T) {
	root := t.TempDir()
	spectra := filepath.Join(root, "spectra")
	out := filepath.Join(root, "out")

	stdout := execute(t, "run", "--spectra", spectra, "--out", out, "--permutations", "200", "--workers", "2")
	assert.Contains(t, stdout, "12 windows")

	entries, err := os.ReadDir(spectra)
	require.NoError(t, err)
	assert.Len(t, entries, 12)

	runs, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	for _, name := range []string{report.ResultsFile, report.Root2ResultsFile, report.SummaryFile, report.WorkbookFile} {
		assert.FileExists(t, filepath.Join(out, runs[0].Name(), name))
	}
}

func TestRunRejectsInvalidFlags(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--n-theta", "1", "--env-file", filepath.Join(t.TempDir(), "none.env")})
	assert.Error(t, cmd.Execute())

	cmd = newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--alt", "-2"})
	assert.Error(t, cmd.Execute())
}

func TestSynthAndCalibrate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spectra")

	stdout := execute(t, "synth", "--dir", dir, "--files", "2", "--points", "500")
	assert.Contains(t, stdout, "synthetic_window_01.csv")
	assert.Contains(t, stdout, "synthetic_window_02.csv")

	stdout = execute(t, "calibrate", filepath.Join(dir, "synthetic_window_01.csv"), "--alt", "root2", "--n-theta", "100")
	assert.Contains(t, stdout, "500 samples")
	assert.Contains(t, stdout, "root2")
	assert.Contains(t, stdout, "U=")
}
