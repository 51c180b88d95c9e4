package e2e

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/graphsolvers/homsearch/internal/lackey"
	"github.com/graphsolvers/homsearch/internal/model"
	"github.com/graphsolvers/homsearch/internal/schedule"
	"github.com/graphsolvers/homsearch/pkg/homsearch"
	"github.com/graphsolvers/homsearch/pkg/homsearch/solver"
)

func complete(n int) *homsearch.Graph {
	g := homsearch.NewGraph(n, false)
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			g.AddEdge(u, v)
		}
	}
	return g
}

func cycle(n int) *homsearch.Graph {
	g := homsearch.NewGraph(n, false)
	for v := 0; v < n; v++ {
		g.AddEdge(v, (v+1)%n)
	}
	return g
}

func mustSolve(pattern, target *homsearch.Graph, params homsearch.Params, modelOpts []model.Option, solverOpts ...solver.Option) homsearch.Result {
	modelOpts = append(modelOpts, model.WithInjectivity(params.Injectivity))
	m, err := model.Build(pattern, target, modelOpts...)
	Expect(err).NotTo(HaveOccurred())
	s, err := solver.New(m, params, solverOpts...)
	Expect(err).NotTo(HaveOccurred())
	result, err := s.Solve()
	Expect(err).NotTo(HaveOccurred())
	return result
}

var _ = Describe("Solving small instances", func() {
	When("embedding a triangle into a triangle", func() {
		It("finds a mapping", func() {
			result := mustSolve(complete(3), complete(3),
				homsearch.Params{Injectivity: homsearch.Injective}, nil)
			Expect(result.Complete).To(BeTrue())
			Expect(result.Mapping).To(HaveLen(3))
		})

		It("counts all six automorphisms", func() {
			result := mustSolve(complete(3), complete(3), homsearch.Params{
				Injectivity:    homsearch.Injective,
				CountSolutions: true,
			}, nil)
			Expect(result.SolutionCount).To(Equal(uint64(6)))
		})
	})

	When("embedding a triangle into a four-cycle", func() {
		It("reports unsatisfiable", func() {
			result := mustSolve(complete(3), cycle(4),
				homsearch.Params{Injectivity: homsearch.Injective}, nil)
			Expect(result.Complete).To(BeFalse())
		})
	})

	When("mapping an edge into a triangle without injectivity", func() {
		It("counts the six ordered adjacent pairs", func() {
			pattern := homsearch.NewGraph(2, false)
			pattern.AddEdge(0, 1)
			result := mustSolve(pattern, complete(3), homsearch.Params{
				Injectivity:    homsearch.NonInjective,
				CountSolutions: true,
			}, nil)
			Expect(result.SolutionCount).To(Equal(uint64(6)))
		})
	})

	When("matching induced", func() {
		It("counts induced edges of a complete target", func() {
			result := mustSolve(complete(2), complete(3), homsearch.Params{
				Injectivity:    homsearch.Injective,
				Induced:        true,
				CountSolutions: true,
			}, nil)
			Expect(result.SolutionCount).To(Equal(uint64(6)))
		})
	})

	When("the pattern is a directed path with an ordering constraint", func() {
		It("finds an order-respecting arc", func() {
			pattern := homsearch.NewGraph(2, true)
			pattern.AddEdge(0, 1)
			target := homsearch.NewGraph(3, true)
			target.AddEdge(0, 1)
			target.AddEdge(1, 2)

			result := mustSolve(pattern, target,
				homsearch.Params{Injectivity: homsearch.Injective},
				[]model.Option{model.WithLessThans([][2]int{{0, 1}})})
			Expect(result.Complete).To(BeTrue())
			Expect(result.Mapping[0]).To(BeNumerically("<", result.Mapping[1]))
			Expect(target.HasEdge(result.Mapping[0], result.Mapping[1])).To(BeTrue())
		})
	})

	When("the timeout fires immediately", func() {
		It("aborts with an error", func() {
			m, err := model.Build(complete(3), complete(4))
			Expect(err).NotTo(HaveOccurred())
			s, err := solver.New(m, homsearch.Params{
				Injectivity: homsearch.Injective,
				Timeout:     homsearch.DeadlineTimeout(0),
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Solve()
			Expect(err).To(MatchError(homsearch.ErrAborted))
		})
	})

	When("restarts are enabled", func() {
		It("still terminates with the right answer", func() {
			result := mustSolve(complete(3), cycle(6), homsearch.Params{
				Injectivity: homsearch.Injective,
				Restarts:    schedule.NewLuby(1),
			}, nil)
			Expect(result.Complete).To(BeFalse())
		})
	})

	When("the SAT lackey cross-checks solutions", func() {
		It("never vetoes a sound mapping", func() {
			m, err := model.Build(cycle(4), complete(5))
			Expect(err).NotTo(HaveOccurred())

			check := lackey.NewSATCheck(m, homsearch.Injective, false)
			s, err := solver.New(m,
				homsearch.Params{Injectivity: homsearch.Injective},
				solver.WithLackey(check))
			Expect(err).NotTo(HaveOccurred())

			result, err := s.Solve()
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Complete).To(BeTrue())
			Expect(check.CheckSolution(result.Mapping, false, false, nil)).To(BeTrue())
		})
	})
})
