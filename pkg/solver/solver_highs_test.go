//go:build highs

package solver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/ilpenum/pkg/solution"
)

func TestHighsSolve(t *testing.T) {
	//** Arrange
	solver, err := New("highs", Settings{Quiet: true})
	require.NoError(t, err)
	document := newDocument("maximize a + b + 2 c", []string{"c1: a + b <= 1"}, "a", "b", "c")
	directory := t.TempDir()

	//** Act
	record, err := solver.Solve(context.Background(), document, directory)

	//** Assert
	require.NoError(t, err)
	assert.True(t, record.Feasible)
	assert.EqualValues(t, 3, record.Objective)
	assert.Contains(t, record.Ones(), "c")
	assert.Len(t, record.Ones(), 2)

	parsed, err := solution.ParseFile(filepath.Join(directory, ResultFile))
	require.NoError(t, err)
	assert.Equal(t, record.Ones(), parsed.Ones())
}

func TestHighsInfeasible(t *testing.T) {
	solver := NewHighsSolver(Settings{Quiet: true})

	record, err := solver.Solve(context.Background(), newDocument("maximize a + b", []string{"a + b >= 3"}, "a", "b"), t.TempDir())

	require.NoError(t, err)
	assert.False(t, record.Feasible)
}

func TestHighsObjectiveKeepsConstant(t *testing.T) {
	solver := NewHighsSolver(Settings{Quiet: true})

	record, err := solver.Solve(context.Background(), newDocument("maximize 2 a - b + 3", []string{"a + b >= 1"}, "a", "b"), t.TempDir())

	require.NoError(t, err)
	assert.EqualValues(t, 5, record.Objective)
	assert.Equal(t, []string{"a"}, record.Ones())
}
