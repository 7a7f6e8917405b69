package model

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliqueModel = `Maximize a + b + c + d
Subject To
  e1: a + d <= 1

  e2: b + d <= 1
Binaries
  a
  b
  c
  d
End
this line is never read
`

func TestLoad(t *testing.T) {
	//** Act
	document, err := Load(strings.NewReader(cliqueModel))

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, "Maximize a + b + c + d", document.Objective())
	assert.Equal(t, []string{"e1: a + d <= 1", "e2: b + d <= 1"}, document.Constraints())
	assert.Equal(t, []string{"a", "b", "c", "d"}, document.Binaries())
}

func TestLoadSkipsUnsupportedSections(t *testing.T) {
	//** Arrange
	text := `max x + y
such that
x + y <= 1
general
z
binary
x
y
end`

	//** Act
	document, err := Load(strings.NewReader(text))

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"x + y <= 1"}, document.Constraints())
	assert.Equal(t, []string{"x", "y"}, document.Binaries())
	assert.False(t, document.IsBinary("z"))
}

func TestLoadKeywordsAreSubstrings(t *testing.T) {
	//** Arrange
	// "bin1" contains "bin" so the constraint opens the binaries section instead
	text := "maximize bin1\ns.t.\nbin1 <= 1\nb2\nend\n"

	//** Act
	document, err := Load(strings.NewReader(text))

	//** Assert
	require.NoError(t, err)
	assert.Empty(t, document.Constraints())
	assert.Equal(t, []string{"b2"}, document.Binaries())
}

func TestDeclareBinaryIgnoresDuplicates(t *testing.T) {
	document := NewDocument("maximize a")
	document.DeclareBinary("a")
	document.DeclareBinary("b")
	document.DeclareBinary("a")

	assert.Equal(t, []string{"a", "b"}, document.Binaries())
}

func TestSerializeRoundTrip(t *testing.T) {
	//** Arrange
	loaded, err := Load(strings.NewReader(cliqueModel))
	require.NoError(t, err)

	built := NewDocument("maximize x1 + 2 x2")
	built.AppendConstraint("x1 + x2 <= 1")
	built.AppendConstraint("c2: x1 - x2 >= -1")
	built.DeclareBinary("x1")
	built.DeclareBinary("x2")

	empty := NewDocument("")

	for _, document := range []*Document{loaded, built, empty} {
		//** Act
		reloaded, err := Load(strings.NewReader(document.Serialize()))

		//** Assert
		require.NoError(t, err)
		if diff := cmp.Diff(document.Constraints(), reloaded.Constraints()); diff != "" {
			t.Errorf("constraints mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(document.Binaries(), reloaded.Binaries()); diff != "" {
			t.Errorf("binaries mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, document.Objective(), reloaded.Objective())
	}
}

func TestSerializeLayout(t *testing.T) {
	document := NewDocument("maximize a + b")
	document.AppendConstraint("a + b <= 1")
	document.DeclareBinary("a")
	document.DeclareBinary("b")

	assert.Equal(t, "maximize a + b\nsuch that\na + b <= 1\nbinary\na\nb\nend\n", document.Serialize())
}

func TestCloneIsIndependent(t *testing.T) {
	original := NewDocument("maximize a")
	original.AppendConstraint("a <= 1")
	original.DeclareBinary("a")

	clone := original.Clone()
	clone.AppendConstraint("a <= 0")
	clone.DeclareBinary("b")

	assert.Equal(t, []string{"a <= 1"}, original.Constraints())
	assert.Equal(t, []string{"a"}, original.Binaries())
	assert.Equal(t, []string{"a <= 1", "a <= 0"}, clone.Constraints())
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ilp.lp")
	document := NewDocument("maximize a")
	document.DeclareBinary("a")

	require.NoError(t, document.Save(path))
	loaded, err := LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, document.Serialize(), loaded.Serialize())
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.lp"))
	assert.Error(t, err)
}
