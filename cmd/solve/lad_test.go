package solve

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLAD(t *testing.T) {
	// a triangle
	g, err := readLAD(strings.NewReader("3\n2 1 2\n2 0 2\n2 0 1\n"), false)
	require.NoError(t, err)

	assert.Equal(t, 3, g.Size())
	assert.True(t, g.HasEdge(0, 1))
	assert.True(t, g.HasEdge(1, 2))
	assert.True(t, g.HasEdge(2, 0))
	assert.False(t, g.Directed())
}

func TestReadLADTokensMaySpanLines(t *testing.T) {
	g, err := readLAD(strings.NewReader("2 1\n1 1 0"), false)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Size())
	assert.True(t, g.HasEdge(0, 1))
}

func TestReadLADDirected(t *testing.T) {
	g, err := readLAD(strings.NewReader("2\n1 1\n0\n"), true)
	require.NoError(t, err)
	assert.True(t, g.HasEdge(0, 1))
	assert.False(t, g.HasEdge(1, 0))
}

func TestReadLADErrors(t *testing.T) {
	type tc struct {
		Name  string
		Input string
	}
	for _, tt := range []tc{
		{"empty input", ""},
		{"truncated record", "2\n1\n"},
		{"out of range neighbour", "2\n1 5\n0\n"},
		{"not a number", "two\n"},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			_, err := readLAD(strings.NewReader(tt.Input), false)
			assert.Error(t, err)
		})
	}
}

func TestParseLessThan(t *testing.T) {
	pair, err := parseLessThan("0<2", 3)
	require.NoError(t, err)
	assert.Equal(t, [2]int{0, 2}, pair)

	_, err = parseLessThan("0-2", 3)
	assert.Error(t, err)
	_, err = parseLessThan("0<9", 3)
	assert.Error(t, err)
}
