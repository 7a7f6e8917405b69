package results

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limaJavier/ilpenum/pkg/solution"
)

func TestFileSinkAppendsSummaryLines(t *testing.T) {
	//** Arrange
	path := filepath.Join(t.TempDir(), "results.txt")
	require.NoError(t, os.WriteFile(path, []byte("5: [x]\n"), 0666))
	sink, err := NewFileSink(path, Summary)
	require.NoError(t, err)

	//** Act
	require.NoError(t, sink.Record(solution.NewRecord(3).Assign("a", 1).Assign("b", 1).Assign("c", 1)))
	require.NoError(t, sink.Record(solution.NewRecord(2).Assign("a", 1).Assign("b", 1).Assign("c", 0)))

	//** Assert
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "5: [x]\n3: [a, b, c]\n2: [a, b]\n", string(content))
}

func TestFileSinkDetailed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	sink, err := NewFileSink(path, Detailed)
	require.NoError(t, err)

	require.NoError(t, sink.Record(solution.NewRecord(1).Assign("a", 0).Assign("b", 1)))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Objective Value = 1\na 0\nb 1\n\n", string(content))
}

func TestNewFileSinkRejectsUnknownFormat(t *testing.T) {
	_, err := NewFileSink("results.txt", Format("xml"))
	assert.Error(t, err)
}

func TestMemorySinkAndTee(t *testing.T) {
	first, second := NewMemorySink(), NewMemorySink()
	sink := Tee(first, second)

	require.NoError(t, sink.Record(solution.NewRecord(4).Assign("x", 1).Assign("y", 1)))

	assert.Equal(t, []Entry{{Objective: 4, Variables: []string{"x", "y"}}}, first.Entries())
	assert.Equal(t, []string{"4: [x, y]"}, second.Lines())
}
