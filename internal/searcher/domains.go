package searcher

import (
	"github.com/graphsolvers/homsearch/internal/bitset"
	"github.com/graphsolvers/homsearch/internal/model"
)

// Assignment maps one pattern vertex to one target vertex.
type Assignment struct {
	PatternVertex int
	TargetVertex  int
}

// trailEntry is one assignment on the trail, together with how it
// was made. Decisions come from branching; the rest from unit
// propagation. For decisions, discrepancyCount is the index of the
// chosen value among the ordered candidates and choiceCount the
// number of candidates at that branch.
type trailEntry struct {
	assignment       Assignment
	isDecision       bool
	discrepancyCount int
	choiceCount      int
}

// Assignments is the trail: an append-then-truncate stack of entries.
// No two entries ever share a pattern vertex.
type Assignments struct {
	values []trailEntry
}

func (a *Assignments) contains(x Assignment) bool {
	for i := range a.values {
		if a.values[i].assignment == x {
			return true
		}
	}
	return false
}

func (a *Assignments) size() int { return len(a.values) }

func (a *Assignments) push(e trailEntry) { a.values = append(a.values, e) }

func (a *Assignments) pop() { a.values = a.values[:len(a.values)-1] }

func (a *Assignments) truncate(n int) { a.values = a.values[:n] }

// Domain is the set of target vertices still possible for pattern
// vertex v. Invariants: count equals the popcount of values; a fixed
// domain has count 1, its value is on the trail, and it is never
// mutated again within the current subtree.
type Domain struct {
	v      int
	values bitset.Bits
	count  int
	fixed  bool
}

// Domains is the working set of not-yet-pruned domains, copied
// (non-fixed entries only) at each branch so that backtracking is by
// discarding.
type Domains []Domain

// NewDomains builds the root working set from the model's initial
// domains.
func NewDomains(m *model.Model) Domains {
	initial := m.InitialDomains()
	domains := make(Domains, len(initial))
	for v, values := range initial {
		domains[v] = Domain{v: v, values: values, count: values.OnesCount()}
	}
	return domains
}

// AnyEmpty reports whether some domain has no candidates left, which
// makes the instance trivially unsatisfiable before any recursion.
func (ds Domains) AnyEmpty() bool {
	for i := range ds {
		if ds[i].count == 0 {
			return true
		}
	}
	return false
}

// copyNonfixedDomainsAndMakeAssignment returns a copy of every
// non-fixed domain, in original order, with the branch domain
// replaced by the singleton {fv}. Fixed domains are permanently
// dropped from the subtree's working set; their assignments live on
// the trail.
func copyNonfixedDomainsAndMakeAssignment(domains Domains, branchV, fv int) Domains {
	newDomains := make(Domains, 0, len(domains))
	for i := range domains {
		d := &domains[i]
		if d.fixed {
			continue
		}
		nd := Domain{v: d.v, count: d.count}
		if d.v == branchV {
			nd.values = bitset.New(d.values.Num)
			nd.values.SetBit(fv)
			nd.count = 1
		} else {
			nd.values = d.values.Clone()
		}
		newDomains = append(newDomains, nd)
	}
	return newDomains
}
