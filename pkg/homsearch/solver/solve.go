// Package solver wires the precomputed model and the search engine
// together: it owns the outer restart loop, re-entering the search
// with fresh root domains after each restart and carrying learned
// nogoods across re-entries.
package solver

import (
	"github.com/graphsolvers/homsearch/internal/model"
	"github.com/graphsolvers/homsearch/internal/schedule"
	"github.com/graphsolvers/homsearch/internal/searcher"
	"github.com/graphsolvers/homsearch/pkg/homsearch"
)

// Solver solves one (pattern, target) instance.
type Solver struct {
	model  *model.Model
	params homsearch.Params
}

// New returns a solver over the given model. Missing collaborators
// are defaulted: no restarts, no timeout.
func New(m *model.Model, params homsearch.Params, options ...Option) (*Solver, error) {
	s := Solver{model: m, params: params}
	for _, option := range append(options, defaults...) {
		if err := option(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

type Option func(s *Solver) error

// WithLackey attaches an external consistency oracle.
func WithLackey(l homsearch.Lackey) Option {
	return func(s *Solver) error {
		s.params.Lackey = l
		return nil
	}
}

// WithProof attaches a proof logger.
func WithProof(p homsearch.Proof) Option {
	return func(s *Solver) error {
		s.params.Proof = p
		return nil
	}
}

var defaults = []Option{
	func(s *Solver) error {
		if s.params.Restarts == nil {
			s.params.Restarts = schedule.NewNone()
		}
		return nil
	},
}

// Solve runs the restarting search to termination. An unsatisfiable
// instance yields a zero-count Result and no error; only an aborted
// search is an error.
func (s *Solver) Solve() (homsearch.Result, error) {
	var result homsearch.Result

	eng := searcher.New(s.model, s.params)
	restarts := s.params.Restarts

	for {
		rootDomains := searcher.NewDomains(s.model)
		if rootDomains.AnyEmpty() {
			// some pattern vertex has no candidates at all; done
			// before any recursion
			return result, nil
		}
		if !eng.ApplyUnitNogoods(rootDomains) {
			finishCounting(&result, s.params)
			return result, nil
		}

		assignments := &searcher.Assignments{}
		outcome := eng.RestartingSearch(assignments, rootDomains,
			&result.Nodes, &result.Propagations, &result.SolutionCount, 0, restarts)

		switch outcome {
		case homsearch.Satisfiable:
			eng.SaveResult(assignments, &result)
			result.Complete = true
			return result, nil

		case homsearch.SatisfiableButKeepGoing:
			// the root frame had nothing to branch on (an empty
			// pattern), so its one solution is already counted
			finishCounting(&result, s.params)
			return result, nil

		case homsearch.Unsatisfiable, homsearch.UnsatisfiableAndBackjumpUsingLackey:
			finishCounting(&result, s.params)
			return result, nil

		case homsearch.Aborted:
			return result, homsearch.ErrAborted

		case homsearch.Restart:
			if eng.Contradicted() {
				// the root itself ran out of values; the restart
				// signal carries no work to redo
				finishCounting(&result, s.params)
				return result, nil
			}
			result.Restarts++
			restarts.DidARestart()
		}
	}
}

func finishCounting(result *homsearch.Result, params homsearch.Params) {
	if params.CountSolutions && result.SolutionCount > 0 {
		result.Complete = true
	}
}
