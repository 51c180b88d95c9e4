// Package lackey provides a concrete external consistency oracle: a
// SAT-backed cross-checker that verifies candidate solutions against
// an independent CNF encoding of the instance. It is a veto oracle
// only; partial mappings are accepted without propagation.
package lackey

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/z"

	"github.com/graphsolvers/homsearch/internal/model"
	"github.com/graphsolvers/homsearch/pkg/homsearch"
)

const satisfiable = 1

// SATCheck encodes the instance once as CNF over selector variables
// x(p,t) and checks each complete mapping by assuming its literals
// and solving.
type SATCheck struct {
	model       *model.Model
	injectivity homsearch.Injectivity
	induced     bool
	g           *gini.Gini
}

var _ homsearch.Lackey = (*SATCheck)(nil)

// NewSATCheck builds the encoding for the given instance under the
// given morphism notion.
func NewSATCheck(m *model.Model, injectivity homsearch.Injectivity, induced bool) *SATCheck {
	l := &SATCheck{
		model:       m,
		injectivity: injectivity,
		induced:     induced,
		g:           gini.NewV(m.PatternSize() * m.TargetSize()),
	}
	l.addRowClauses()
	l.addInjectivityClauses()
	l.addAdjacencyClauses()
	return l
}

func (l *SATCheck) lit(p, t int) z.Lit {
	return z.Var(p*l.model.TargetSize() + t + 1).Pos()
}

// addRowClauses requires every pattern vertex to select at least one
// target.
func (l *SATCheck) addRowClauses() {
	for p := 0; p < l.model.PatternSize(); p++ {
		for t := 0; t < l.model.TargetSize(); t++ {
			l.g.Add(l.lit(p, t))
		}
		l.g.Add(z.LitNull)
	}
}

// addInjectivityClauses forbids target sharing according to the
// injectivity mode.
func (l *SATCheck) addInjectivityClauses() {
	if l.injectivity == homsearch.NonInjective {
		return
	}
	for t := 0; t < l.model.TargetSize(); t++ {
		for p := 0; p < l.model.PatternSize(); p++ {
			for q := p + 1; q < l.model.PatternSize(); q++ {
				if l.injectivity == homsearch.LocallyInjective && !l.shareNeighbour(p, q) {
					continue
				}
				l.g.Add(l.lit(p, t).Not())
				l.g.Add(l.lit(q, t).Not())
				l.g.Add(z.LitNull)
			}
		}
	}
}

func (l *SATCheck) shareNeighbour(p, q int) bool {
	row := l.model.PatternGraphRow(0, p).Clone()
	row.And(l.model.PatternGraphRow(0, q))
	return row.Any()
}

// addAdjacencyClauses forbids selector pairs that would break an
// edge (or, under induced, a non-edge), including label mismatches.
func (l *SATCheck) addAdjacencyClauses() {
	for u := 0; u < l.model.PatternSize(); u++ {
		for v := 0; v < l.model.PatternSize(); v++ {
			if u == v {
				continue
			}
			patternEdge := l.model.PatternAdjacencyBits(u, v)&1 != 0
			for a := 0; a < l.model.TargetSize(); a++ {
				for b := 0; b < l.model.TargetSize(); b++ {
					if a == b && l.injectivity == homsearch.Injective {
						continue
					}
					if l.conflicts(u, v, a, b, patternEdge) {
						l.g.Add(l.lit(u, a).Not())
						l.g.Add(l.lit(v, b).Not())
						l.g.Add(z.LitNull)
					}
				}
			}
		}
	}
}

func (l *SATCheck) conflicts(u, v, a, b int, patternEdge bool) bool {
	targetEdge := l.targetEdge(a, b)
	if patternEdge {
		if !targetEdge {
			return true
		}
		if l.model.HasEdgeLabels() && l.model.PatternEdgeLabel(u, v) != l.model.TargetEdgeLabel(a, b) {
			return true
		}
		return false
	}
	return l.induced && targetEdge
}

func (l *SATCheck) targetEdge(a, b int) bool {
	if l.model.Directed() {
		return l.model.ForwardTargetGraphRow(a).Bit(b)
	}
	return l.model.TargetGraphRow(0, a).Bit(b)
}

// CheckSolution implements the Lackey interface. Partial mappings
// are accepted verbatim; complete mappings are checked by assuming
// their selector literals.
func (l *SATCheck) CheckSolution(mapping homsearch.VertexToVertexMapping, partial bool, _ bool, _ homsearch.DeletionFunc) bool {
	if partial {
		return true
	}
	for p, t := range mapping {
		l.g.Assume(l.lit(p, t))
	}
	return l.g.Solve() == satisfiable
}
