package searcher

import (
	"github.com/graphsolvers/homsearch/pkg/homsearch"
)

// adjacencyFunc filters one domain against the current assignment.
// The variant matching the instance shape (directed, edge-labelled,
// induced) is chosen once at searcher construction so the per-domain
// loop does not re-branch on it.
type adjacencyFunc func(d *Domain, current Assignment)

func (s *Searcher) makeAdjacencyFunc() adjacencyFunc {
	switch {
	case s.model.HasEdgeLabels():
		// edge-labelled graphs are always treated as directed
		return s.adjacencyDirected(s.params.Induced, true)
	case s.model.Directed():
		return s.adjacencyDirected(s.params.Induced, false)
	default:
		return s.adjacencyUndirected(s.params.Induced)
	}
}

func (s *Searcher) adjacencyUndirected(induced bool) adjacencyFunc {
	return func(d *Domain, current Assignment) {
		bits := s.model.PatternAdjacencyBits(current.PatternVertex, d.v)

		// adjacent in the original pair: only adjacent images remain
		if bits&1 != 0 {
			d.values.And(s.model.TargetGraphRow(0, current.TargetVertex))
		} else if induced {
			d.values.AndNot(s.model.TargetGraphRow(0, current.TargetVertex))
		}

		s.adjacencySupplemental(d, current, bits)
	}
}

func (s *Searcher) adjacencyDirected(induced, labelled bool) adjacencyFunc {
	return func(d *Domain, current Assignment) {
		bits := s.model.PatternAdjacencyBits(current.PatternVertex, d.v)

		if bits&1 != 0 {
			d.values.And(s.model.ForwardTargetGraphRow(current.TargetVertex))
		} else if induced {
			d.values.AndNot(s.model.ForwardTargetGraphRow(current.TargetVertex))
		}

		revBits := s.model.PatternAdjacencyBits(d.v, current.PatternVertex)
		if revBits&1 != 0 {
			d.values.And(s.model.ReverseTargetGraphRow(current.TargetVertex))
		} else if induced {
			d.values.AndNot(s.model.ReverseTargetGraphRow(current.TargetVertex))
		}

		s.adjacencySupplemental(d, current, bits)

		if labelled {
			s.adjacencyEdgeLabels(d, current, bits, revBits)
		}
	}
}

// adjacencySupplemental filters against the remaining graph pairs.
// Supplemental rows are filtering-only and are not complemented
// under induced.
func (s *Searcher) adjacencySupplemental(d *Domain, current Assignment, bits uint32) {
	for g := 1; g < s.model.MaxGraphs(); g++ {
		if bits&(1<<uint(g)) != 0 {
			d.values.And(s.model.TargetGraphRow(g, current.TargetVertex))
		}
	}
}

// adjacencyEdgeLabels removes candidates whose incident edge labels
// disagree with the pattern's, in both directions.
func (s *Searcher) adjacencyEdgeLabels(d *Domain, current Assignment, bits, revBits uint32) {
	if bits&1 != 0 {
		want := s.model.PatternEdgeLabel(current.PatternVertex, d.v)
		check := d.values.Clone()
		check.IterateOnes(func(c int) bool {
			if s.model.TargetEdgeLabel(current.TargetVertex, c) != want {
				d.values.ClearBit(c)
			}
			return true
		})
	}

	if revBits&1 != 0 {
		want := s.model.PatternEdgeLabel(d.v, current.PatternVertex)
		check := d.values.Clone()
		check.IterateOnes(func(c int) bool {
			if s.model.TargetEdgeLabel(c, current.TargetVertex) != want {
				d.values.ClearBit(c)
			}
			return true
		})
	}
}

func (s *Searcher) bothInTheNeighbourhoodOfSomeVertex(v, w int) bool {
	i := s.model.PatternGraphRow(0, v).Clone()
	i.And(s.model.PatternGraphRow(0, w))
	return i.Any()
}

// propagateSimpleConstraints applies injectivity and adjacency
// filtering to every non-fixed domain, failing on a wipeout.
func (s *Searcher) propagateSimpleConstraints(newDomains Domains, current Assignment) bool {
	for i := range newDomains {
		d := &newDomains[i]
		if d.fixed {
			continue
		}

		switch s.params.Injectivity {
		case homsearch.Injective:
			d.values.ClearBit(current.TargetVertex)
		case homsearch.LocallyInjective:
			if s.bothInTheNeighbourhoodOfSomeVertex(current.PatternVertex, d.v) {
				d.values.ClearBit(current.TargetVertex)
			}
		case homsearch.NonInjective:
		}

		s.adjacency(d, current)

		d.count = d.values.OnesCount()
		if d.count == 0 {
			return false
		}
	}
	return true
}

// propagateLessThans enforces the model's ordering pairs (a, b):
// first tightening b from below, then a from above. Pairs with an
// endpoint no longer in the working set are skipped.
func (s *Searcher) propagateLessThans(newDomains Domains) bool {
	findDomain := make([]int, s.model.PatternSize())
	for i := range findDomain {
		findDomain[i] = -1
	}
	for i := range newDomains {
		findDomain[newDomains[i].v] = i
	}

	pairs := s.model.PatternLessThansInConvenientOrder()

	for _, p := range pairs {
		a, b := p[0], p[1]
		if findDomain[a] == -1 || findDomain[b] == -1 {
			continue
		}
		aDomain := &newDomains[findDomain[a]]
		bDomain := &newDomains[findDomain[b]]

		// first value of b must be after the first possible value of a
		firstA := aDomain.values.FirstOne()
		if firstA == -1 {
			return false
		}
		firstAllowedB := firstA + 1
		if firstAllowedB >= s.model.TargetSize() {
			return false
		}

		for v := bDomain.values.FirstOne(); v != -1 && v < firstAllowedB; v = bDomain.values.FirstOne() {
			bDomain.values.ClearBit(v)
		}

		bDomain.count = bDomain.values.OnesCount()
		if bDomain.count == 0 {
			return false
		}
	}

	for _, p := range pairs {
		a, b := p[0], p[1]
		if findDomain[a] == -1 || findDomain[b] == -1 {
			continue
		}
		aDomain := &newDomains[findDomain[a]]
		bDomain := &newDomains[findDomain[b]]

		// last value of a must be before the last possible value of b
		lastB := bDomain.values.LastOne()
		if lastB <= 0 {
			return false
		}
		lastAllowedA := lastB - 1

		for v := aDomain.values.LastOne(); v > lastAllowedA; v = aDomain.values.LastOne() {
			aDomain.values.ClearBit(v)
		}

		aDomain.count = aDomain.values.OnesCount()
		if aDomain.count == 0 {
			return false
		}
	}

	return true
}

// propagateHyperedgeConstraints is a reserved extension point for
// bigraph mode.
func (s *Searcher) propagateHyperedgeConstraints(Domains, Assignment) bool {
	return true
}

// propagate runs the unit-propagation loop to fixpoint: any domain
// of size one commits its forced assignment and wakes the watch
// store, the per-assignment filters, ordering propagation, and
// all-different. After the fixpoint the lackey may veto the partial
// mapping or propagate deletions.
func (s *Searcher) propagate(newDomains Domains, assignments *Assignments, useLackey bool) bool {
	findUnitDomain := func() *Domain {
		for i := range newDomains {
			if !newDomains[i].fixed && newDomains[i].count == 1 {
				return &newDomains[i]
			}
		}
		return nil
	}

	for branchDomain := findUnitDomain(); branchDomain != nil; branchDomain = findUnitDomain() {
		current := Assignment{branchDomain.v, branchDomain.values.FirstOne()}

		branchDomain.fixed = true
		// the branch assignment of this frame is already on the
		// trail as a decision; everything else gets a fresh entry
		if !assignments.contains(current) {
			assignments.push(trailEntry{current, false, -1, -1})
		}

		if s.params.Proof != nil {
			s.params.Proof.UnitPropagating(
				s.model.PatternVertexForProof(current.PatternVertex),
				s.model.TargetVertexForProof(current.TargetVertex))
		}

		if s.watches != nil {
			s.watches.propagate(current,
				func(a Assignment) bool { return !assignments.contains(a) },
				func(a Assignment) {
					for i := range newDomains {
						d := &newDomains[i]
						if d.fixed {
							continue
						}
						if d.v == a.PatternVertex {
							d.values.ClearBit(a.TargetVertex)
							break
						}
					}
				})
		}

		if !s.propagateSimpleConstraints(newDomains, current) {
			return false
		}

		if s.params.Bigraph && !s.propagateHyperedgeConstraints(newDomains, current) {
			return false
		}

		if s.model.HasLessThans() && !s.propagateLessThans(newDomains) {
			return false
		}

		if s.params.Injectivity == homsearch.Injective {
			if !cheapAllDifferent(s.model.TargetSize(), newDomains) {
				return false
			}
		}
	}

	if s.params.Lackey != nil && (useLackey || s.params.SendPartialsToLackey) {
		mapping := make(homsearch.VertexToVertexMapping)
		s.ExpandToFullResult(assignments, mapping)

		wipeout := false
		var deletion homsearch.DeletionFunc
		if useLackey {
			deletion = func(p, t int) bool {
				if wipeout {
					return false
				}
				for i := range newDomains {
					d := &newDomains[i]
					if d.v == p {
						if d.values.Bit(t) {
							d.values.ClearBit(t)
							d.count--
							if d.count == 0 {
								wipeout = true
							}
							return true
						}
						break
					}
				}
				return false
			}
		}

		if !s.params.Lackey.CheckSolution(mapping, true, false, deletion) || wipeout {
			return false
		}
	}

	return true
}
