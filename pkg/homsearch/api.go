// Package homsearch defines the public types of the subgraph
// isomorphism and homomorphism solver: the search parameters, the
// result values, and the collaborator interfaces the search engine
// consumes. The engine itself lives in internal/searcher and is
// driven through pkg/homsearch/solver.
package homsearch

import (
	"errors"
	"fmt"
	"time"
)

// Injectivity selects the notion of morphism being searched for.
type Injectivity int

const (
	// Injective forbids two pattern vertices from sharing a target.
	Injective Injectivity = iota
	// LocallyInjective forbids sharing only between pattern vertices
	// with a common neighbour.
	LocallyInjective
	// NonInjective allows arbitrary sharing.
	NonInjective
)

// ValueOrdering selects how candidate target vertices are ordered at
// each branch point.
type ValueOrdering int

const (
	// OrderByDegree tries high-degree target vertices first.
	OrderByDegree ValueOrdering = iota
	// OrderByAntiDegree tries low-degree target vertices first.
	OrderByAntiDegree
	// OrderBiased samples without replacement, softmax-weighted by
	// degree.
	OrderBiased
	// OrderRandom shuffles uniformly.
	OrderRandom
)

// PropagateUsingLackey controls when the external oracle participates
// in propagation, as opposed to only vetoing complete solutions.
type PropagateUsingLackey int

const (
	PropagateUsingLackeyNever PropagateUsingLackey = iota
	PropagateUsingLackeyAlways
	PropagateUsingLackeyRootAndBackjump
)

// SearchResult is the outcome of one search frame. Restart and
// Aborted are control signals that propagate unchanged to the top of
// the recursion.
type SearchResult int

const (
	Satisfiable SearchResult = iota
	SatisfiableButKeepGoing
	Unsatisfiable
	UnsatisfiableAndBackjumpUsingLackey
	Restart
	Aborted
)

func (r SearchResult) String() string {
	switch r {
	case Satisfiable:
		return "satisfiable"
	case SatisfiableButKeepGoing:
		return "satisfiable, keep going"
	case Unsatisfiable:
		return "unsatisfiable"
	case UnsatisfiableAndBackjumpUsingLackey:
		return "unsatisfiable, backjump using lackey"
	case Restart:
		return "restart"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("search result %d", int(r))
}

// VertexToVertexMapping maps pattern vertex indices to target vertex
// indices.
type VertexToVertexMapping map[int]int

// NamedVertex pairs a dense vertex index with its external name, for
// proof logging and output.
type NamedVertex struct {
	Index int
	Name  string
}

func (v NamedVertex) String() string {
	return fmt.Sprintf("%s(%d)", v.Name, v.Index)
}

// Timeout is the cooperative cancellation probe consulted at the top
// of every search call.
type Timeout interface {
	ShouldAbort() bool
}

// TimeoutFunc adapts a func to the Timeout interface.
type TimeoutFunc func() bool

func (f TimeoutFunc) ShouldAbort() bool { return f() }

// NeverTimeout returns a Timeout that never aborts.
func NeverTimeout() Timeout {
	return TimeoutFunc(func() bool { return false })
}

// DeadlineTimeout returns a Timeout that aborts once the deadline has
// passed. A zero duration aborts immediately.
func DeadlineTimeout(d time.Duration) Timeout {
	deadline := time.Now().Add(d)
	return TimeoutFunc(func() bool { return !time.Now().Before(deadline) })
}

// RestartSchedule decides when the current subtree should be
// abandoned in favour of a restart from the root.
type RestartSchedule interface {
	// DidABacktrack records that the search backtracked after an
	// actual failure.
	DidABacktrack()
	// ShouldRestart reports whether the search should abandon the
	// current subtree now.
	ShouldRestart() bool
	// MightRestart reports whether this schedule can ever restart;
	// when false (and no solution nogoods are needed) the watch
	// table is not allocated.
	MightRestart() bool
	// DidARestart tells the schedule the driver has re-entered the
	// search, so it can advance its sequence.
	DidARestart()
}

// DeletionFunc is offered to the lackey during partial checks: it
// removes target t from pattern vertex p's domain, reporting whether
// the value was actually present.
type DeletionFunc func(p, t int) bool

// Lackey is an external consistency oracle. It may veto candidate
// solutions, and during partial checks may propagate domain
// deletions through the supplied callback (which is nil when the
// engine only wants a verdict).
type Lackey interface {
	CheckSolution(mapping VertexToVertexMapping, partial bool, countingSolutions bool, deletion DeletionFunc) bool
}

// Proof records decisions and inferences for external certification.
// Every method may be called many times per search; implementations
// must tolerate interleaving with restarts.
type Proof interface {
	Guessing(depth int, pattern, target NamedVertex)
	PropagationFailure(decisions [][2]int, pattern, target NamedVertex)
	UnitPropagating(pattern, target NamedVertex)
	StartLevel(level int)
	BackUpToLevel(level int)
	ForgetLevel(level int)
	IncorrectGuess(decisions [][2]int, wasTrueUnsat bool)
	OutOfGuesses(decisions [][2]int)
	PostRestartNogood(decisions [][2]int)
	PostSolution(solution [][2]NamedVertex)
	BackUpToTop()
}

// Params configures a single solve.
type Params struct {
	Injectivity          Injectivity
	Induced              bool
	Bigraph              bool
	CountSolutions       bool
	ValueOrdering        ValueOrdering
	PropagateUsingLackey PropagateUsingLackey
	SendPartialsToLackey bool

	// EnumerateCallback, when set with CountSolutions, receives each
	// solution as it is found.
	EnumerateCallback func(VertexToVertexMapping)

	// Seed feeds the value-ordering RNG.
	Seed int64

	Timeout  Timeout
	Proof    Proof
	Lackey   Lackey
	Restarts RestartSchedule
}

// Result reports the outcome of a solve.
type Result struct {
	// Complete is true when a mapping was found (or, under counting,
	// when at least one solution exists).
	Complete bool
	// Mapping holds one satisfying mapping when Complete.
	Mapping VertexToVertexMapping
	// SolutionCount is the number of solutions found under counting.
	SolutionCount uint64

	Nodes        uint64
	Propagations uint64
	Restarts     uint64

	// Extra holds human-readable trace stats, one string per entry.
	Extra []string
}

// ErrAborted is returned when the timeout collaborator cancelled the
// search before it terminated.
var ErrAborted = errors.New("search aborted before completion")
