// Package searcher implements the core search engine: a
// constraint-propagation backtracking procedure with restarts,
// clause learning over restarts via watched-literal nogoods, and
// optional delegation to an external consistency oracle. The engine
// is single-threaded and strictly sequential; failures are in-band
// SearchResult values, never errors.
package searcher

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/graphsolvers/homsearch/internal/model"
	"github.com/graphsolvers/homsearch/pkg/homsearch"
)

// Searcher runs the restarting depth-first search over one model.
type Searcher struct {
	model   *model.Model
	params  homsearch.Params
	watches *watchStore

	adjacency adjacencyFunc
	rand      *rand.Rand
}

// New returns a searcher for the given model and parameters. The
// watch table is only allocated when nogoods can ever be posted.
func New(m *model.Model, params homsearch.Params) *Searcher {
	s := &Searcher{
		model:  m,
		params: params,
		rand:   rand.New(rand.NewSource(params.Seed)),
	}
	if MightHaveWatches(params) {
		s.watches = newWatchStore(m.PatternSize(), m.TargetSize())
	}
	s.adjacency = s.makeAdjacencyFunc()
	return s
}

// MightHaveWatches reports whether nogoods are ever posted under
// these parameters: either the schedule can restart, or bigraph mode
// posts solution nogoods. Both paths behave identically on the
// propagation side absent watches.
func MightHaveWatches(params homsearch.Params) bool {
	if params.Restarts != nil && params.Restarts.MightRestart() {
		return true
	}
	return params.Bigraph
}

// SetSeed reseeds the value-ordering RNG.
func (s *Searcher) SetSeed(seed int64) {
	s.rand = rand.New(rand.NewSource(seed))
}

// RestartingSearch is one search frame. On any return other than
// Satisfiable the trail is restored to its incoming length; Restart
// and Aborted propagate unchanged to the top.
func (s *Searcher) RestartingSearch(
	assignments *Assignments,
	domains Domains,
	nodes, propagations *uint64,
	solutionCount *uint64,
	depth int,
	schedule homsearch.RestartSchedule,
) homsearch.SearchResult {
	if s.params.Timeout != nil && s.params.Timeout.ShouldAbort() {
		return homsearch.Aborted
	}

	*nodes++

	// find ourselves a domain, or succeed if we're all assigned
	branchDomain := s.findBranchDomain(domains)
	if branchDomain == nil {
		return s.handleSolution(assignments, solutionCount)
	}

	// pull out the remaining values in this domain for branching
	remaining := branchDomain.values.Clone()
	branchV := make([]int, 0, branchDomain.count)
	for fv := remaining.FirstOne(); fv != -1; fv = remaining.FirstOne() {
		remaining.ClearBit(fv)
		branchV = append(branchV, fv)
	}

	switch s.params.ValueOrdering {
	case homsearch.OrderByDegree:
		s.degreeSort(branchV, false)
	case homsearch.OrderByAntiDegree:
		s.degreeSort(branchV, true)
	case homsearch.OrderBiased:
		s.softmaxShuffle(branchV)
	case homsearch.OrderRandom:
		s.rand.Shuffle(len(branchV), func(i, j int) {
			branchV[i], branchV[j] = branchV[j], branchV[i]
		})
	}

	discrepancyCount := 0
	actuallyHitAFailure := false
	useLackeyForPropagation := false

	for idx, fv := range branchV {
		if s.params.Proof != nil {
			s.params.Proof.Guessing(depth,
				s.model.PatternVertexForProof(branchDomain.v),
				s.model.TargetVertexForProof(fv))
		}

		// modified in place by appending, restored by truncating
		trailSize := assignments.size()

		assignments.push(trailEntry{Assignment{branchDomain.v, fv}, true, discrepancyCount, len(branchV)})

		newDomains := copyNonfixedDomainsAndMakeAssignment(domains, branchDomain.v, fv)

		*propagations++
		useLackey := useLackeyForPropagation ||
			s.params.PropagateUsingLackey == homsearch.PropagateUsingLackeyAlways
		if !s.propagate(newDomains, assignments, useLackey) {
			if s.params.Proof != nil {
				s.params.Proof.PropagationFailure(s.assignmentsAsProofDecisions(assignments),
					s.model.PatternVertexForProof(branchDomain.v),
					s.model.TargetVertexForProof(fv))
			}

			assignments.truncate(trailSize)
			actuallyHitAFailure = true
			continue
		}

		if s.params.Proof != nil {
			s.params.Proof.StartLevel(depth + 2)
		}

		result := s.RestartingSearch(assignments, newDomains, nodes, propagations,
			solutionCount, depth+1, schedule)

		switch result {
		case homsearch.Satisfiable:
			return homsearch.Satisfiable

		case homsearch.Aborted:
			return homsearch.Aborted

		case homsearch.Restart:
			// restore the trail before posting nogoods, it's easier
			assignments.truncate(trailSize)

			// post nogoods for every value tried at this branch so far
			for _, l := range branchV[:idx] {
				assignments.push(trailEntry{Assignment{branchDomain.v, l}, true, -2, -2})
				s.postNogood(assignments)
				assignments.pop()
			}

			return homsearch.Restart

		case homsearch.SatisfiableButKeepGoing:
			if s.params.Proof != nil {
				s.params.Proof.BackUpToLevel(depth + 1)
				s.params.Proof.IncorrectGuess(s.assignmentsAsProofDecisions(assignments), false)
				s.params.Proof.ForgetLevel(depth + 2)
			}

			assignments.truncate(trailSize)

		case homsearch.UnsatisfiableAndBackjumpUsingLackey:
			useLackeyForPropagation = true
			fallthrough

		case homsearch.Unsatisfiable:
			if s.params.Proof != nil {
				s.params.Proof.BackUpToLevel(depth + 1)
				s.params.Proof.IncorrectGuess(s.assignmentsAsProofDecisions(assignments), true)
				s.params.Proof.ForgetLevel(depth + 2)
			}

			assignments.truncate(trailSize)
			actuallyHitAFailure = true
		}

		discrepancyCount++
	}

	// out of values: backtrack, or possibly kick off a restart
	if s.params.Proof != nil {
		s.params.Proof.OutOfGuesses(s.assignmentsAsProofDecisions(assignments))
	}

	if actuallyHitAFailure {
		schedule.DidABacktrack()
	}

	if schedule.ShouldRestart() {
		if s.params.Proof != nil {
			s.params.Proof.BackUpToTop()
		}
		s.postNogood(assignments)
		return homsearch.Restart
	}

	if useLackeyForPropagation {
		return homsearch.UnsatisfiableAndBackjumpUsingLackey
	}
	return homsearch.Unsatisfiable
}

// handleSolution deals with a frame in which every pattern vertex is
// fixed: the mapping is validated against the bigraph extras and the
// lackey, reported to the proof log, and either returned or counted.
func (s *Searcher) handleSolution(assignments *Assignments, solutionCount *uint64) homsearch.SearchResult {
	if s.params.Bigraph {
		mapping := make(homsearch.VertexToVertexMapping)
		s.ExpandToFullResult(assignments, mapping)

		if !s.model.CheckExtraBigraphConstraints(mapping) {
			// exclude this assignment across restarts, so the extra
			// checks don't rerun on isomorphic solutions
			s.postSolutionNogood(assignments)
			return homsearch.Unsatisfiable
		}
	}

	if s.params.Lackey != nil {
		mapping := make(homsearch.VertexToVertexMapping)
		s.ExpandToFullResult(assignments, mapping)
		if !s.params.Lackey.CheckSolution(mapping, false, s.params.CountSolutions, nil) {
			if s.params.PropagateUsingLackey == homsearch.PropagateUsingLackeyRootAndBackjump {
				return homsearch.UnsatisfiableAndBackjumpUsingLackey
			}
			return homsearch.Unsatisfiable
		}
	}

	if s.params.Proof != nil {
		s.params.Proof.PostSolution(s.solutionInProofForm(assignments))
	}

	if s.params.CountSolutions {
		*solutionCount++

		if s.params.Bigraph {
			s.postSolutionNogood(assignments)
		}

		if s.params.EnumerateCallback != nil {
			mapping := make(homsearch.VertexToVertexMapping)
			s.ExpandToFullResult(assignments, mapping)
			s.params.EnumerateCallback(mapping)
		}

		return homsearch.SatisfiableButKeepGoing
	}

	return homsearch.Satisfiable
}

// findBranchDomain picks the non-fixed domain with the smallest
// count, ties broken by larger pair-0 pattern degree, then by
// first-found order.
func (s *Searcher) findBranchDomain(domains Domains) *Domain {
	var result *Domain
	for i := range domains {
		d := &domains[i]
		if d.fixed {
			continue
		}
		if result == nil ||
			d.count < result.count ||
			(d.count == result.count && s.model.PatternDegree(0, d.v) > s.model.PatternDegree(0, result.v)) {
			result = d
		}
	}
	return result
}

// postNogood posts the conjunction of every decision on the trail.
func (s *Searcher) postNogood(assignments *Assignments) {
	if s.watches == nil {
		return
	}

	var n nogood
	for i := range assignments.values {
		if assignments.values[i].isDecision {
			n.literals = append(n.literals, assignments.values[i].assignment)
		}
	}

	s.watches.postNogood(n)

	if s.params.Proof != nil {
		s.params.Proof.PostRestartNogood(s.assignmentsAsProofDecisions(assignments))
	}
}

// postSolutionNogood posts the decisions of a complete solution,
// excluding link vertices. Omitting the links may slightly
// under-count isomorphic solutions; this matches the reference
// behaviour.
func (s *Searcher) postSolutionNogood(assignments *Assignments) {
	if s.watches == nil {
		return
	}

	cut := s.model.PatternSize() - s.model.PatternLinkCount()
	var n nogood
	for i := range assignments.values {
		e := &assignments.values[i]
		if e.isDecision && e.assignment.PatternVertex < cut {
			n.literals = append(n.literals, e.assignment)
		}
	}

	s.watches.postNogood(n)
}

// Contradicted reports whether an empty nogood has been posted,
// meaning the root was exhausted and re-entry cannot succeed.
func (s *Searcher) Contradicted() bool {
	return s.watches != nil && s.watches.contradiction
}

// ApplyUnitNogoods removes every single-literal nogood learned so
// far from the given root domains, reporting false when a domain is
// wiped out.
func (s *Searcher) ApplyUnitNogoods(domains Domains) bool {
	if s.watches == nil {
		return true
	}
	ok := true
	s.watches.unitNogoods(func(a Assignment) {
		for i := range domains {
			d := &domains[i]
			if d.v == a.PatternVertex {
				if d.values.Bit(a.TargetVertex) {
					d.values.ClearBit(a.TargetVertex)
					d.count--
					if d.count == 0 {
						ok = false
					}
				}
				break
			}
		}
	})
	return ok
}

// ExpandToFullResult copies the trail into a mapping.
func (s *Searcher) ExpandToFullResult(assignments *Assignments, mapping homsearch.VertexToVertexMapping) {
	for i := range assignments.values {
		a := assignments.values[i].assignment
		if _, ok := mapping[a.PatternVertex]; !ok {
			mapping[a.PatternVertex] = a.TargetVertex
		}
	}
}

// SaveResult fills in the mapping and the discrepancy/choice trace
// stat for a satisfiable outcome.
func (s *Searcher) SaveResult(assignments *Assignments, result *homsearch.Result) {
	result.Mapping = make(homsearch.VertexToVertexMapping)
	s.ExpandToFullResult(assignments, result.Mapping)

	var where strings.Builder
	where.WriteString("where =")
	for i := range assignments.values {
		e := &assignments.values[i]
		fmt.Fprintf(&where, " %d/%d", e.discrepancyCount, e.choiceCount)
	}
	result.Extra = append(result.Extra, where.String())
}

func (s *Searcher) assignmentsAsProofDecisions(assignments *Assignments) [][2]int {
	var trail [][2]int
	for i := range assignments.values {
		if assignments.values[i].isDecision {
			a := assignments.values[i].assignment
			trail = append(trail, [2]int{a.PatternVertex, a.TargetVertex})
		}
	}
	return trail
}

func (s *Searcher) solutionInProofForm(assignments *Assignments) [][2]homsearch.NamedVertex {
	var solution [][2]homsearch.NamedVertex
	seen := make(map[int]struct{}, len(assignments.values))
	for i := range assignments.values {
		a := assignments.values[i].assignment
		if _, ok := seen[a.PatternVertex]; ok {
			continue
		}
		seen[a.PatternVertex] = struct{}{}
		solution = append(solution, [2]homsearch.NamedVertex{
			s.model.PatternVertexForProof(a.PatternVertex),
			s.model.TargetVertexForProof(a.TargetVertex),
		})
	}
	return solution
}
