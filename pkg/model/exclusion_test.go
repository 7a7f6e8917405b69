package model

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclusionFormat(t *testing.T) {
	constraint, err := Exclusion([]string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Equal(t, "a + b + c <= 2", constraint)
}

func TestExclusionRejectsEmptySet(t *testing.T) {
	_, err := Exclusion(nil)
	assert.Error(t, err)
}

func TestExclusionForbidsOnlyTheExactSet(t *testing.T) {
	//** Arrange
	variables := []string{"a", "b", "c", "d"}
	ones := []string{"a", "b", "c"}
	text, err := Exclusion(ones)
	require.NoError(t, err)
	constraint, err := ParseConstraint(text)
	require.NoError(t, err)

	// Every assignment over the four variables
	for mask := 0; mask < 1<<len(variables); mask++ {
		assignment := make(map[string]int64)
		for i, variable := range variables {
			if mask&(1<<i) != 0 {
				assignment[variable] = 1
			}
		}

		//** Act
		satisfied := constraint.Satisfied(assignment)

		//** Assert
		allOnes := lo.EveryBy(ones, func(name string) bool { return assignment[name] == 1 })
		assert.Equal(t, !allOnes, satisfied, "assignment %v", assignment)
	}
}
