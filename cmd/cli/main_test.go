package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/ilpenum/pkg/solution"
	"github.com/limaJavier/ilpenum/pkg/solver"
	"github.com/limaJavier/ilpenum/pkg/workspace"
)

const cliqueModel = `Maximize obj: a + b + c
Subject To
Binary
a
b
c
End
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(&out, &out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clique.lp")
	require.NoError(t, os.WriteFile(path, []byte(cliqueModel), 0666))
	return path
}

func TestEnumerateWithGophersat(t *testing.T) {
	//** Arrange
	root := filepath.Join(t.TempDir(), "work")

	//** Act
	output, err := execute(t, "enumerate", writeModel(t), "-s", "gophersat", "-w", root, "-q", "--no-color")

	//** Assert
	require.NoError(t, err)
	assert.Contains(t, output, "[Solver] Workspace: "+root)
	assert.Contains(t, output, "STOPPED_INFEASIBLE after 8 runs: 7 solutions")

	content, err := os.ReadFile(filepath.Join(root, workspace.ResultsName))
	require.NoError(t, err)
	assert.Equal(t, 7, bytes.Count(content, []byte("\n")))
	assert.True(t, bytes.HasPrefix(content, []byte("3: [a, b, c]\n")))
	assert.FileExists(t, filepath.Join(root, workspace.BaseModelName))
	assert.FileExists(t, filepath.Join(root, "008", solver.ResultFile))
}

func TestEnumerateFlagsOverrideConfig(t *testing.T) {
	//** Arrange
	directory := t.TempDir()
	configPath := filepath.Join(directory, "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"solver": "gophersat", "minimum": 2, "quiet": true, "color": false}`), 0666))
	resultFile := filepath.Join(directory, "found.txt")

	//** Act
	_, err := execute(t, "enumerate", writeModel(t), "--config", configPath, "-m", "1", "-r", resultFile, "-w", filepath.Join(directory, "work"))

	//** Assert
	require.NoError(t, err)
	content, err := os.ReadFile(resultFile)
	require.NoError(t, err)
	assert.Equal(t, 4, bytes.Count(content, []byte("\n")), "objectives 3, 2, 2 and 2 are above the minimum given on the command line")
}

func TestEnumerateHonorsSolutionCapAndPools(t *testing.T) {
	root := filepath.Join(t.TempDir(), "work")

	output, err := execute(t, "enumerate", writeModel(t), "-s", "gophersat", "--strategy", "pool", "--pool-size", "3", "-n", "5", "-w", root, "-q", "--format", "detailed")

	require.NoError(t, err)
	assert.Contains(t, output, "STOPPED_LIMIT after 2 runs: 5 solutions")
	record, err := solution.ParseFile(filepath.Join(root, "001", "pool_001.sol"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, record.Objective)
}

func TestEnumerateRejectsExistingWorkspace(t *testing.T) {
	root := t.TempDir()

	_, err := execute(t, "enumerate", writeModel(t), "-s", "gophersat", "-w", root, "-q")
	assert.ErrorIs(t, err, workspace.ErrWorkspaceExists)
	assert.Equal(t, exitFailure, exitCode(err))

	_, err = execute(t, "enumerate", writeModel(t), "-s", "gophersat", "-w", root, "-q", "-f")
	assert.NoError(t, err)
}

func TestEnumerateSetupErrors(t *testing.T) {
	_, err := execute(t, "enumerate", filepath.Join(t.TempDir(), "missing.lp"))
	assert.ErrorContains(t, err, "not found")

	_, err = execute(t, "enumerate", writeModel(t), "-s", "cplex", "-w", filepath.Join(t.TempDir(), "work"))
	assert.ErrorContains(t, err, "cplex")

	_, err = execute(t, "enumerate", writeModel(t), "-s", "gurobi", "-w", filepath.Join(t.TempDir(), "work"), "--config", writeGurobiConfig(t))
	assert.ErrorIs(t, err, solver.ErrSolverNotFound)
}

func writeGurobiConfig(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"gurobiPath": "ilpenum-missing-gurobi_cl"}`), 0666))
	return path
}

func TestNormalize(t *testing.T) {
	output, err := execute(t, "normalize", writeModel(t))

	require.NoError(t, err)
	assert.Equal(t, "Maximize obj: a + b + c\nsuch that\nbinary\na\nb\nc\nend\n", output)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, exitCancelled, exitCode(errCancelled))
	assert.Equal(t, exitTimeout, exitCode(errors.Wrap(solver.ErrSolverTimeout, "run #3")))
	assert.Equal(t, exitFailure, exitCode(solver.ErrSolverNotFound))
}
