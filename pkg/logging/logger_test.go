package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleTagsNamespace(t *testing.T) {
	//** Arrange
	var out, errOut bytes.Buffer
	logger := NewConsole(&out, &errOut, "Solver", true)

	//** Act
	logger.Printf("Starting Run #%d", 1)
	logger.Named("Gurobi", SolverTag).Write("Optimize a model with 3 rows")
	logger.Errorf("cannot find %v", "gurobi_cl")

	//** Assert
	assert.Equal(t, "[Solver] Starting Run #1\n[Gurobi] Optimize a model with 3 rows\n", out.String())
	assert.Equal(t, "[Solver:ERROR] cannot find gurobi_cl\n", errOut.String())
}

func TestConsoleWriteKeepsExistingNewline(t *testing.T) {
	var out bytes.Buffer
	logger := NewConsole(&out, &out, "Gurobi", true)

	logger.Write("line\n")

	assert.Equal(t, "[Gurobi] line\n", out.String())
}

func TestDiscard(t *testing.T) {
	logger := Discard().Named("anything", DefaultTag)

	assert.NotPanics(t, func() {
		logger.Printf("%v", 1)
		logger.Errorf("%v", 2)
		logger.Write("3")
	})
}
