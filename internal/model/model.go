// Package model precomputes the filtering information the search
// engine queries: bitset adjacency rows for pattern and target,
// per-vertex degrees, pattern adjacency bit masks over the graph
// pairs, edge labels, ordering constraints, and initial domains.
// A Model is immutable once built and shared by reference.
package model

import (
	"fmt"

	"github.com/graphsolvers/homsearch/internal/bitset"
	"github.com/graphsolvers/homsearch/pkg/homsearch"
)

// Model holds the precomputed view of one (pattern, target) instance.
type Model struct {
	patternSize int
	targetSize  int
	maxGraphs   int
	directed    bool

	pattern *homsearch.Graph
	target  *homsearch.Graph

	// rows[g][v]: neighbourhood of v in graph pair g. For directed
	// instances row 0 is the union of both edge directions; the
	// oriented rows are kept separately.
	patternRows [][]bitset.Bits
	targetRows  [][]bitset.Bits

	forwardTargetRows []bitset.Bits
	reverseTargetRows []bitset.Bits

	patternDegrees [][]int
	targetDegrees  [][]int

	largestTargetDegree int

	// adjacencyBits[u*patternSize+v]: bit g set when u and v are
	// adjacent in pattern graph pair g (for directed pair 0, when
	// the edge u->v exists).
	adjacencyBits []uint32

	hasEdgeLabels bool

	lessThans        [][2]int
	patternLinkCount int
	injectivity      homsearch.Injectivity

	extraConstraint func(homsearch.VertexToVertexMapping) bool
}

// Option configures model construction.
type Option func(*Model)

// WithLessThans installs ordering pairs (a, b): the target assigned
// to pattern vertex a must be strictly less than that of b. Used for
// symmetry breaking.
func WithLessThans(pairs [][2]int) Option {
	return func(m *Model) { m.lessThans = pairs }
}

// WithPatternLinkCount marks the trailing count vertices of the
// pattern as link vertices; solution nogoods exclude them.
func WithPatternLinkCount(count int) Option {
	return func(m *Model) { m.patternLinkCount = count }
}

// WithExtraConstraint installs a check run against every complete
// mapping in bigraph mode.
func WithExtraConstraint(check func(homsearch.VertexToVertexMapping) bool) Option {
	return func(m *Model) { m.extraConstraint = check }
}

// WithSupplementalGraphs adds a distance-two graph pair to the
// filtering, strengthening adjacency propagation.
func WithSupplementalGraphs() Option {
	return func(m *Model) { m.maxGraphs = 2 }
}

// WithInjectivity tells the model which notion of morphism the
// search will use, so initial-domain degree filtering is only
// applied where it is sound. Defaults to Injective.
func WithInjectivity(injectivity homsearch.Injectivity) Option {
	return func(m *Model) { m.injectivity = injectivity }
}

// Build precomputes a Model for embedding pattern into target. The
// two graphs must agree on directedness; edge-labelled graphs are
// treated as directed.
func Build(pattern, target *homsearch.Graph, opts ...Option) (*Model, error) {
	if pattern.Directed() != target.Directed() {
		return nil, fmt.Errorf("pattern and target disagree on directedness")
	}

	m := &Model{
		patternSize:   pattern.Size(),
		targetSize:    target.Size(),
		maxGraphs:     1,
		directed:      pattern.Directed() || pattern.HasEdgeLabels() || target.HasEdgeLabels(),
		pattern:       pattern,
		target:        target,
		hasEdgeLabels: pattern.HasEdgeLabels() || target.HasEdgeLabels(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.patternRows = make([][]bitset.Bits, m.maxGraphs)
	m.targetRows = make([][]bitset.Bits, m.maxGraphs)
	m.patternRows[0] = unionRows(pattern)
	m.targetRows[0] = unionRows(target)

	if m.directed {
		m.forwardTargetRows = orientedRows(target, false)
		m.reverseTargetRows = orientedRows(target, true)
	}

	for g := 1; g < m.maxGraphs; g++ {
		m.patternRows[g] = distanceTwoRows(m.patternRows[0])
		m.targetRows[g] = distanceTwoRows(m.targetRows[0])
	}

	m.patternDegrees = degreeTable(m.patternRows)
	m.targetDegrees = degreeTable(m.targetRows)
	for _, d := range m.targetDegrees[0] {
		if d > m.largestTargetDegree {
			m.largestTargetDegree = d
		}
	}

	m.adjacencyBits = make([]uint32, m.patternSize*m.patternSize)
	for u := 0; u < m.patternSize; u++ {
		for v := 0; v < m.patternSize; v++ {
			var bits uint32
			if m.directed {
				if pattern.HasEdge(u, v) {
					bits |= 1 << 0
				}
			} else if m.patternRows[0][u].Bit(v) {
				bits |= 1 << 0
			}
			for g := 1; g < m.maxGraphs; g++ {
				if m.patternRows[g][u].Bit(v) {
					bits |= 1 << uint(g)
				}
			}
			m.adjacencyBits[u*m.patternSize+v] = bits
		}
	}

	return m, nil
}

func unionRows(g *homsearch.Graph) []bitset.Bits {
	rows := make([]bitset.Bits, g.Size())
	for v := range rows {
		rows[v] = bitset.New(g.Size())
	}
	for v := 0; v < g.Size(); v++ {
		g.Neighbours(v, func(w int) {
			rows[v].SetBit(w)
			rows[w].SetBit(v)
		})
	}
	return rows
}

func orientedRows(g *homsearch.Graph, reverse bool) []bitset.Bits {
	rows := make([]bitset.Bits, g.Size())
	for v := range rows {
		rows[v] = bitset.New(g.Size())
	}
	for v := 0; v < g.Size(); v++ {
		g.Neighbours(v, func(w int) {
			if reverse {
				rows[w].SetBit(v)
			} else {
				rows[v].SetBit(w)
			}
		})
	}
	return rows
}

// distanceTwoRows builds rows where w is a neighbour of v when the
// two are joined by a walk of length at most two. Including the
// length-one walks keeps the filter sound for non-injective
// morphisms, where a midpoint may collapse onto an endpoint.
func distanceTwoRows(base []bitset.Bits) []bitset.Bits {
	rows := make([]bitset.Bits, len(base))
	for v := range base {
		rows[v] = base[v].Clone()
		base[v].IterateOnes(func(w int) bool {
			rows[v].Or(base[w])
			return true
		})
	}
	return rows
}

func degreeTable(rows [][]bitset.Bits) [][]int {
	degrees := make([][]int, len(rows))
	for g := range rows {
		degrees[g] = make([]int, len(rows[g]))
		for v := range rows[g] {
			degrees[g][v] = rows[g][v].OnesCount()
		}
	}
	return degrees
}

// PatternSize returns the number of pattern vertices.
func (m *Model) PatternSize() int { return m.patternSize }

// TargetSize returns the number of target vertices.
func (m *Model) TargetSize() int { return m.targetSize }

// MaxGraphs returns the number of graph pairs under filtering.
func (m *Model) MaxGraphs() int { return m.maxGraphs }

// Directed reports whether the instance is directed (edge-labelled
// instances always are).
func (m *Model) Directed() bool { return m.directed }

// PatternDegree returns the degree of pattern vertex v in pair g.
func (m *Model) PatternDegree(g, v int) int { return m.patternDegrees[g][v] }

// TargetDegree returns the degree of target vertex v in pair g.
func (m *Model) TargetDegree(g, v int) int { return m.targetDegrees[g][v] }

// LargestTargetDegree returns the maximum pair-0 target degree.
func (m *Model) LargestTargetDegree() int { return m.largestTargetDegree }

// PatternGraphRow returns the neighbourhood bitset of pattern vertex
// v in pair g. Callers must not mutate it.
func (m *Model) PatternGraphRow(g, v int) bitset.Bits { return m.patternRows[g][v] }

// TargetGraphRow returns the neighbourhood bitset of target vertex v
// in pair g. Callers must not mutate it.
func (m *Model) TargetGraphRow(g, v int) bitset.Bits { return m.targetRows[g][v] }

// ForwardTargetGraphRow returns the out-neighbourhood of target
// vertex v. Only valid for directed instances.
func (m *Model) ForwardTargetGraphRow(v int) bitset.Bits { return m.forwardTargetRows[v] }

// ReverseTargetGraphRow returns the in-neighbourhood of target
// vertex v. Only valid for directed instances.
func (m *Model) ReverseTargetGraphRow(v int) bitset.Bits { return m.reverseTargetRows[v] }

// PatternAdjacencyBits returns the graph-pair adjacency mask for the
// ordered pair (u, v).
func (m *Model) PatternAdjacencyBits(u, v int) uint32 {
	return m.adjacencyBits[u*m.patternSize+v]
}

// HasEdgeLabels reports whether the instance carries edge labels.
func (m *Model) HasEdgeLabels() bool { return m.hasEdgeLabels }

// PatternEdgeLabel returns the label on pattern edge u->v, -1 when
// absent.
func (m *Model) PatternEdgeLabel(u, v int) int { return m.pattern.EdgeLabel(u, v) }

// TargetEdgeLabel returns the label on target edge u->v, -1 when
// absent.
func (m *Model) TargetEdgeLabel(u, v int) int { return m.target.EdgeLabel(u, v) }

// HasLessThans reports whether ordering constraints are present.
func (m *Model) HasLessThans() bool { return len(m.lessThans) > 0 }

// PatternLessThansInConvenientOrder returns the ordering pairs in
// propagation order.
func (m *Model) PatternLessThansInConvenientOrder() [][2]int { return m.lessThans }

// PatternLinkCount returns the number of trailing link vertices.
func (m *Model) PatternLinkCount() int { return m.patternLinkCount }

// CheckExtraBigraphConstraints runs the installed extra check on a
// complete mapping, defaulting to success.
func (m *Model) CheckExtraBigraphConstraints(mapping homsearch.VertexToVertexMapping) bool {
	if m.extraConstraint == nil {
		return true
	}
	return m.extraConstraint(mapping)
}

// PatternVertexForProof returns pattern vertex i with its name.
func (m *Model) PatternVertexForProof(i int) homsearch.NamedVertex {
	return homsearch.NamedVertex{Index: i, Name: m.pattern.Name(i)}
}

// TargetVertexForProof returns target vertex i with its name.
func (m *Model) TargetVertexForProof(i int) homsearch.NamedVertex {
	return homsearch.NamedVertex{Index: i, Name: m.target.Name(i)}
}

// InitialDomains returns one candidate bitset per pattern vertex:
// target t is admitted for pattern vertex v when it is
// loop-compatible and degree-compatible: in pair 0 unless the
// morphism is non-injective, and in the supplemental pairs only when
// it is injective.
func (m *Model) InitialDomains() []bitset.Bits {
	domains := make([]bitset.Bits, m.patternSize)
	for v := range domains {
		domains[v] = bitset.New(m.targetSize)
		for t := 0; t < m.targetSize; t++ {
			if m.admissible(v, t) {
				domains[v].SetBit(t)
			}
		}
	}
	return domains
}

func (m *Model) admissible(v, t int) bool {
	// degrees are only monotone when neighbourhoods map injectively,
	// which holds for injective and locally injective morphisms;
	// supplemental degrees need full injectivity
	if m.injectivity != homsearch.NonInjective {
		if m.targetDegrees[0][t] < m.patternDegrees[0][v] {
			return false
		}
	}
	if m.injectivity == homsearch.Injective {
		for g := 1; g < m.maxGraphs; g++ {
			if m.targetDegrees[g][t] < m.patternDegrees[g][v] {
				return false
			}
		}
	}
	if m.pattern.HasEdge(v, v) && !m.target.HasEdge(t, t) {
		return false
	}
	return true
}
