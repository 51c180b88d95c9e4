package searcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphsolvers/homsearch/internal/model"
	"github.com/graphsolvers/homsearch/internal/schedule"
	"github.com/graphsolvers/homsearch/pkg/homsearch"
)

func completeGraph(n int) *homsearch.Graph {
	g := homsearch.NewGraph(n, false)
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			g.AddEdge(u, v)
		}
	}
	return g
}

func cycleGraph(n int) *homsearch.Graph {
	g := homsearch.NewGraph(n, false)
	for v := 0; v < n; v++ {
		g.AddEdge(v, (v+1)%n)
	}
	return g
}

func pathGraph(n int) *homsearch.Graph {
	g := homsearch.NewGraph(n, false)
	for v := 0; v+1 < n; v++ {
		g.AddEdge(v, v+1)
	}
	return g
}

func buildModel(t *testing.T, pattern, target *homsearch.Graph, opts ...model.Option) *model.Model {
	t.Helper()
	m, err := model.Build(pattern, target, opts...)
	require.NoError(t, err)
	return m
}

// runSearch drives one full search from fresh root state, the way
// the outer driver does for a schedule that never restarts.
func runSearch(m *model.Model, params homsearch.Params) (homsearch.SearchResult, *homsearch.Result, *Assignments) {
	if params.Restarts == nil {
		params.Restarts = schedule.NewNone()
	}
	s := New(m, params)
	domains := NewDomains(m)
	assignments := &Assignments{}
	result := &homsearch.Result{}
	outcome := s.RestartingSearch(assignments, domains,
		&result.Nodes, &result.Propagations, &result.SolutionCount, 0, params.Restarts)
	if outcome == homsearch.Satisfiable {
		s.SaveResult(assignments, result)
	}
	return outcome, result, assignments
}

func TestTriangleIntoTriangle(t *testing.T) {
	m := buildModel(t, completeGraph(3), completeGraph(3))

	outcome, result, _ := runSearch(m, homsearch.Params{Injectivity: homsearch.Injective})
	require.Equal(t, homsearch.Satisfiable, outcome)

	assert.Len(t, result.Mapping, 3)
	assertValidMapping(t, completeGraph(3), completeGraph(3), result.Mapping, true, false)
}

func TestTriangleIntoTriangleCounting(t *testing.T) {
	m := buildModel(t, completeGraph(3), completeGraph(3))

	outcome, result, trail := runSearch(m, homsearch.Params{
		Injectivity:    homsearch.Injective,
		CountSolutions: true,
	})
	assert.Equal(t, homsearch.Unsatisfiable, outcome)
	assert.Equal(t, uint64(6), result.SolutionCount)
	assert.Zero(t, trail.size(), "trail must be restored on any non-Satisfiable return")
}

func TestTriangleIntoFourCycle(t *testing.T) {
	m := buildModel(t, completeGraph(3), cycleGraph(4))

	outcome, _, trail := runSearch(m, homsearch.Params{Injectivity: homsearch.Injective})
	assert.Equal(t, homsearch.Unsatisfiable, outcome)
	assert.Zero(t, trail.size())
}

func TestEdgeIntoTriangleNonInjectiveCounting(t *testing.T) {
	m := buildModel(t, pathGraph(2), completeGraph(3),
		model.WithInjectivity(homsearch.NonInjective))

	outcome, result, _ := runSearch(m, homsearch.Params{
		Injectivity:    homsearch.NonInjective,
		CountSolutions: true,
	})
	assert.Equal(t, homsearch.Unsatisfiable, outcome)
	// ordered pairs of adjacent target vertices
	assert.Equal(t, uint64(6), result.SolutionCount)
}

func TestEdgeIntoTriangleInducedCounting(t *testing.T) {
	m := buildModel(t, completeGraph(2), completeGraph(3))

	outcome, result, _ := runSearch(m, homsearch.Params{
		Injectivity:    homsearch.Injective,
		Induced:        true,
		CountSolutions: true,
	})
	assert.Equal(t, homsearch.Unsatisfiable, outcome)
	assert.Equal(t, uint64(6), result.SolutionCount)
}

func TestInducedRejectsChord(t *testing.T) {
	// an induced path of three vertices cannot sit inside a triangle
	m := buildModel(t, pathGraph(3), completeGraph(3))

	outcome, _, _ := runSearch(m, homsearch.Params{
		Injectivity: homsearch.Injective,
		Induced:     true,
	})
	assert.Equal(t, homsearch.Unsatisfiable, outcome)
}

func TestDirectedPathWithLessThan(t *testing.T) {
	pattern := homsearch.NewGraph(2, true)
	pattern.AddEdge(0, 1)
	target := homsearch.NewGraph(3, true)
	target.AddEdge(0, 1)
	target.AddEdge(1, 2)

	m := buildModel(t, pattern, target, model.WithLessThans([][2]int{{0, 1}}))

	outcome, result, _ := runSearch(m, homsearch.Params{Injectivity: homsearch.Injective})
	require.Equal(t, homsearch.Satisfiable, outcome)
	assert.Less(t, result.Mapping[0], result.Mapping[1])
	assert.True(t, target.HasEdge(result.Mapping[0], result.Mapping[1]))
}

func TestLessThanPrunesReversedSolutions(t *testing.T) {
	m := buildModel(t, pathGraph(2), completeGraph(3), model.WithLessThans([][2]int{{0, 1}}))

	outcome, result, _ := runSearch(m, homsearch.Params{
		Injectivity:    homsearch.Injective,
		CountSolutions: true,
	})
	assert.Equal(t, homsearch.Unsatisfiable, outcome)
	// of the six ordered pairs only those with increasing indices stay
	assert.Equal(t, uint64(3), result.SolutionCount)
}

func TestTimeoutAborts(t *testing.T) {
	m := buildModel(t, completeGraph(3), completeGraph(4))

	outcome, _, trail := runSearch(m, homsearch.Params{
		Injectivity: homsearch.Injective,
		Timeout:     homsearch.TimeoutFunc(func() bool { return true }),
	})
	assert.Equal(t, homsearch.Aborted, outcome)
	assert.Zero(t, trail.size())
}

func TestEmptyPatternIsSatisfiable(t *testing.T) {
	m := buildModel(t, homsearch.NewGraph(0, false), completeGraph(3))

	outcome, result, _ := runSearch(m, homsearch.Params{Injectivity: homsearch.Injective})
	assert.Equal(t, homsearch.Satisfiable, outcome)
	assert.Empty(t, result.Mapping)
}

func TestLocallyInjectiveSharing(t *testing.T) {
	// a path of three vertices maps locally injectively into one
	// edge only if the endpoints collapse, which local injectivity
	// forbids because they share the middle neighbour
	m := buildModel(t, pathGraph(3), pathGraph(2),
		model.WithInjectivity(homsearch.LocallyInjective))

	outcome, _, _ := runSearch(m, homsearch.Params{Injectivity: homsearch.LocallyInjective})
	assert.Equal(t, homsearch.Unsatisfiable, outcome)

	// without the sharing restriction the collapse is allowed
	noninj := buildModel(t, pathGraph(3), pathGraph(2),
		model.WithInjectivity(homsearch.NonInjective))
	outcome, _, _ = runSearch(noninj, homsearch.Params{Injectivity: homsearch.NonInjective})
	assert.Equal(t, homsearch.Satisfiable, outcome)
}

func TestInjectiveMappingHasDistinctTargets(t *testing.T) {
	m := buildModel(t, cycleGraph(4), completeGraph(5))

	outcome, result, _ := runSearch(m, homsearch.Params{Injectivity: homsearch.Injective})
	require.Equal(t, homsearch.Satisfiable, outcome)

	seen := map[int]bool{}
	for _, t2 := range result.Mapping {
		assert.False(t, seen[t2])
		seen[t2] = true
	}
}

func TestEnumerateCallbackSeesEverySolution(t *testing.T) {
	m := buildModel(t, pathGraph(2), completeGraph(3))

	var mappings []homsearch.VertexToVertexMapping
	outcome, result, _ := runSearch(m, homsearch.Params{
		Injectivity:    homsearch.Injective,
		CountSolutions: true,
		EnumerateCallback: func(mapping homsearch.VertexToVertexMapping) {
			mappings = append(mappings, mapping)
		},
	})
	assert.Equal(t, homsearch.Unsatisfiable, outcome)
	assert.Equal(t, uint64(6), result.SolutionCount)
	require.Len(t, mappings, 6)
	for _, mapping := range mappings {
		assertValidMapping(t, pathGraph(2), completeGraph(3), mapping, true, false)
	}
}

func TestBigraphExtraConstraintVeto(t *testing.T) {
	m := buildModel(t, pathGraph(2), completeGraph(3),
		model.WithExtraConstraint(func(mapping homsearch.VertexToVertexMapping) bool {
			return mapping[0] == 2
		}))

	outcome, result, _ := runSearch(m, homsearch.Params{
		Injectivity:    homsearch.Injective,
		Bigraph:        true,
		CountSolutions: true,
	})
	assert.Equal(t, homsearch.Unsatisfiable, outcome)
	// only the two mappings sending pattern vertex 0 to target 2
	assert.Equal(t, uint64(2), result.SolutionCount)
}

type vetoLackey struct {
	allow func(homsearch.VertexToVertexMapping) bool
}

func (l vetoLackey) CheckSolution(mapping homsearch.VertexToVertexMapping, partial, _ bool, _ homsearch.DeletionFunc) bool {
	if partial {
		return true
	}
	return l.allow(mapping)
}

func TestLackeyVetoesSolutions(t *testing.T) {
	m := buildModel(t, pathGraph(2), completeGraph(3))

	outcome, result, _ := runSearch(m, homsearch.Params{
		Injectivity:    homsearch.Injective,
		CountSolutions: true,
		Lackey:         vetoLackey{allow: func(mapping homsearch.VertexToVertexMapping) bool { return mapping[0] == 0 }},
	})
	assert.Equal(t, homsearch.Unsatisfiable, outcome)
	assert.Equal(t, uint64(2), result.SolutionCount)
}

func TestPropagationIsIdempotent(t *testing.T) {
	m := buildModel(t, pathGraph(3), pathGraph(3))
	s := New(m, homsearch.Params{Injectivity: homsearch.Injective})

	domains := NewDomains(m)
	assignments := &Assignments{}
	require.True(t, s.propagate(domains, assignments, false))

	snapshot := make([]string, len(domains))
	for i := range domains {
		snapshot[i] = domains[i].values.String()
	}

	require.True(t, s.propagate(domains, assignments, false))
	for i := range domains {
		assert.Equal(t, snapshot[i], domains[i].values.String())
	}
}

func TestDomainCountsStayConsistent(t *testing.T) {
	m := buildModel(t, pathGraph(3), completeGraph(4))
	s := New(m, homsearch.Params{Injectivity: homsearch.Injective})

	domains := NewDomains(m)
	newDomains := copyNonfixedDomainsAndMakeAssignment(domains, 1, 0)
	assignments := &Assignments{}
	assignments.push(trailEntry{Assignment{1, 0}, true, 0, 1})

	require.True(t, s.propagate(newDomains, assignments, false))
	for i := range newDomains {
		d := &newDomains[i]
		assert.Equal(t, d.values.OnesCount(), d.count)
		if d.fixed {
			assert.Equal(t, 1, d.count)
		}
	}
}

func TestBranchDomainSelection(t *testing.T) {
	// middle vertex of the pattern path has the highest degree; with
	// equal counts it must be branched first
	m := buildModel(t, pathGraph(3), completeGraph(4))
	s := New(m, homsearch.Params{Injectivity: homsearch.Injective})

	domains := NewDomains(m)
	branch := s.findBranchDomain(domains)
	require.NotNil(t, branch)
	assert.Equal(t, 1, branch.v)
}

func TestTrailNeverDuplicatesAPatternVertex(t *testing.T) {
	m := buildModel(t, cycleGraph(4), completeGraph(4))
	s := New(m, homsearch.Params{Injectivity: homsearch.Injective})

	domains := NewDomains(m)
	assignments := &Assignments{}
	var result homsearch.Result
	outcome := s.RestartingSearch(assignments, domains,
		&result.Nodes, &result.Propagations, &result.SolutionCount, 0, schedule.NewNone())
	require.Equal(t, homsearch.Satisfiable, outcome)

	seen := map[int]bool{}
	for i := range assignments.values {
		pv := assignments.values[i].assignment.PatternVertex
		assert.False(t, seen[pv], "pattern vertex %d appears twice on the trail", pv)
		seen[pv] = true
	}
}

func TestCopyDropsFixedDomains(t *testing.T) {
	m := buildModel(t, pathGraph(3), completeGraph(4))
	domains := NewDomains(m)
	domains[0].fixed = true

	copied := copyNonfixedDomainsAndMakeAssignment(domains, 1, 2)
	require.Len(t, copied, 2)
	assert.Equal(t, 1, copied[0].v)
	assert.Equal(t, []int{2}, copied[0].values.Slice())
	assert.Equal(t, 1, copied[0].count)

	// the copy must not alias the source
	copied[1].values.ClearBit(0)
	assert.True(t, domains[2].values.Bit(0))
}

func assertValidMapping(t *testing.T, pattern, target *homsearch.Graph, mapping homsearch.VertexToVertexMapping, checkEdges, induced bool) {
	t.Helper()
	require.Len(t, mapping, pattern.Size())
	for u := 0; u < pattern.Size(); u++ {
		for v := 0; v < pattern.Size(); v++ {
			if u == v {
				continue
			}
			if pattern.HasEdge(u, v) && checkEdges {
				assert.True(t, target.HasEdge(mapping[u], mapping[v]),
					"pattern edge %d-%d not preserved", u, v)
			}
			if induced && !pattern.HasEdge(u, v) {
				assert.False(t, target.HasEdge(mapping[u], mapping[v]))
			}
		}
	}
}
