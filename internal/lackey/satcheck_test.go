package lackey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphsolvers/homsearch/internal/model"
	"github.com/graphsolvers/homsearch/pkg/homsearch"
)

func buildEdgeIntoSquareModel(t *testing.T) *model.Model {
	t.Helper()
	pattern := homsearch.NewGraph(2, false)
	pattern.AddEdge(0, 1)
	target := homsearch.NewGraph(4, false)
	target.AddEdge(0, 1)
	target.AddEdge(1, 2)
	target.AddEdge(2, 3)
	target.AddEdge(3, 0)
	m, err := model.Build(pattern, target)
	require.NoError(t, err)
	return m
}

func TestSATCheckAcceptsValidMapping(t *testing.T) {
	m := buildEdgeIntoSquareModel(t)
	l := NewSATCheck(m, homsearch.Injective, false)

	assert.True(t, l.CheckSolution(homsearch.VertexToVertexMapping{0: 0, 1: 1}, false, false, nil))
	assert.True(t, l.CheckSolution(homsearch.VertexToVertexMapping{0: 2, 1: 3}, false, false, nil))
}

func TestSATCheckRejectsNonEdgeImage(t *testing.T) {
	m := buildEdgeIntoSquareModel(t)
	l := NewSATCheck(m, homsearch.Injective, false)

	// 0 and 2 are opposite corners of the square
	assert.False(t, l.CheckSolution(homsearch.VertexToVertexMapping{0: 0, 1: 2}, false, false, nil))
}

func TestSATCheckRejectsSharedTargetWhenInjective(t *testing.T) {
	pattern := homsearch.NewGraph(2, false)
	target := homsearch.NewGraph(2, false)
	target.AddEdge(0, 1)
	m, err := model.Build(pattern, target)
	require.NoError(t, err)

	inj := NewSATCheck(m, homsearch.Injective, false)
	assert.False(t, inj.CheckSolution(homsearch.VertexToVertexMapping{0: 0, 1: 0}, false, false, nil))

	noninjModel, err := model.Build(pattern, target, model.WithInjectivity(homsearch.NonInjective))
	require.NoError(t, err)
	noninj := NewSATCheck(noninjModel, homsearch.NonInjective, false)
	assert.True(t, noninj.CheckSolution(homsearch.VertexToVertexMapping{0: 0, 1: 0}, false, false, nil))
}

func TestSATCheckInducedRejectsChord(t *testing.T) {
	pattern := homsearch.NewGraph(3, false)
	pattern.AddEdge(0, 1)
	pattern.AddEdge(1, 2)
	target := homsearch.NewGraph(3, false)
	target.AddEdge(0, 1)
	target.AddEdge(1, 2)
	target.AddEdge(2, 0)
	m, err := model.Build(pattern, target)
	require.NoError(t, err)

	induced := NewSATCheck(m, homsearch.Injective, true)
	assert.False(t, induced.CheckSolution(homsearch.VertexToVertexMapping{0: 0, 1: 1, 2: 2}, false, false, nil))

	loose := NewSATCheck(m, homsearch.Injective, false)
	assert.True(t, loose.CheckSolution(homsearch.VertexToVertexMapping{0: 0, 1: 1, 2: 2}, false, false, nil))
}

func TestSATCheckAcceptsPartialMappingsVerbatim(t *testing.T) {
	m := buildEdgeIntoSquareModel(t)
	l := NewSATCheck(m, homsearch.Injective, false)

	// a veto oracle only; partial queries are not judged
	assert.True(t, l.CheckSolution(homsearch.VertexToVertexMapping{0: 0}, true, false, nil))
}

func TestSATCheckEdgeLabels(t *testing.T) {
	pattern := homsearch.NewGraph(2, true)
	pattern.AddEdge(0, 1)
	pattern.SetEdgeLabel(0, 1, 1)
	target := homsearch.NewGraph(3, true)
	target.AddEdge(0, 1)
	target.SetEdgeLabel(0, 1, 1)
	target.AddEdge(1, 2)
	target.SetEdgeLabel(1, 2, 2)
	m, err := model.Build(pattern, target)
	require.NoError(t, err)

	l := NewSATCheck(m, homsearch.Injective, false)
	assert.True(t, l.CheckSolution(homsearch.VertexToVertexMapping{0: 0, 1: 1}, false, false, nil))
	assert.False(t, l.CheckSolution(homsearch.VertexToVertexMapping{0: 1, 1: 2}, false, false, nil))
}
