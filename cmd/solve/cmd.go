package solve

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/graphsolvers/homsearch/internal/lackey"
	"github.com/graphsolvers/homsearch/internal/model"
	"github.com/graphsolvers/homsearch/internal/proof"
	"github.com/graphsolvers/homsearch/internal/schedule"
	"github.com/graphsolvers/homsearch/pkg/homsearch"
	"github.com/graphsolvers/homsearch/pkg/homsearch/solver"
)

type options struct {
	induced       bool
	count         bool
	enumerate     bool
	directed      bool
	supplemental  bool
	verify        bool
	injectivity   string
	valueOrdering string
	restarts      string
	lubyMult      uint64
	seed          int64
	timeout       time.Duration
	proofFile     string
	lessThans     []string
}

func NewSolveCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "solve <pattern-file> <target-file>",
		Short: "Decides whether the pattern graph maps into the target graph",
		Long: `Decides whether the pattern graph can be mapped into the target
graph. Both files are in LAD format: the first number is the vertex
count, then one record per vertex giving its degree followed by that
many neighbour indices. Exits 1 when no mapping exists.`,
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file (%s) not found", path)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(opts, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&opts.induced, "induced", false, "require non-edges to map to non-edges")
	cmd.Flags().BoolVar(&opts.count, "count", false, "count every mapping instead of stopping at the first")
	cmd.Flags().BoolVar(&opts.enumerate, "enumerate", false, "print every mapping (implies --count)")
	cmd.Flags().BoolVar(&opts.directed, "directed", false, "treat both graphs as directed")
	cmd.Flags().BoolVar(&opts.supplemental, "supplemental-graphs", false, "filter with distance-two supplemental graphs")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "cross-check solutions with the SAT lackey")
	cmd.Flags().StringVar(&opts.injectivity, "injectivity", "injective", "injective, locally-injective or non-injective")
	cmd.Flags().StringVar(&opts.valueOrdering, "value-ordering", "degree", "degree, antidegree, biased or random")
	cmd.Flags().StringVar(&opts.restarts, "restarts", "none", "none, luby, geometric or timed")
	cmd.Flags().Uint64Var(&opts.lubyMult, "luby-multiplier", schedule.DefaultLubyMultiplier, "backtrack multiplier for luby restarts")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "seed for the value-ordering RNG")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "give up after this long (0 means never)")
	cmd.Flags().StringVar(&opts.proofFile, "proof", "", "write a search trace to this file")
	cmd.Flags().StringArrayVar(&opts.lessThans, "less-than", nil, "ordering constraint a<b over pattern vertices (repeatable)")

	return cmd
}

func run(opts *options, patternPath, targetPath string) error {
	log := logrus.New()

	params, err := buildParams(opts)
	if err != nil {
		return err
	}

	pattern, err := readLADFile(patternPath, opts.directed)
	if err != nil {
		return err
	}
	target, err := readLADFile(targetPath, opts.directed)
	if err != nil {
		return err
	}

	modelOpts, err := buildModelOptions(opts, params.Injectivity, pattern.Size())
	if err != nil {
		return err
	}
	m, err := model.Build(pattern, target, modelOpts...)
	if err != nil {
		return err
	}

	var solverOpts []solver.Option
	if opts.verify {
		solverOpts = append(solverOpts, solver.WithLackey(lackey.NewSATCheck(m, params.Injectivity, params.Induced)))
	}
	if opts.proofFile != "" {
		f, err := os.Create(opts.proofFile)
		if err != nil {
			return err
		}
		defer f.Close()
		logger := proof.NewTextLogger(f)
		defer logger.Flush()
		solverOpts = append(solverOpts, solver.WithProof(logger))
	}

	if opts.enumerate {
		// printing every mapping only makes sense when enumerating
		params.CountSolutions = true
		params.EnumerateCallback = func(mapping homsearch.VertexToVertexMapping) {
			printMapping(pattern, target, mapping)
			fmt.Println()
		}
	}

	s, err := solver.New(m, params, solverOpts...)
	if err != nil {
		return err
	}

	started := time.Now()
	result, err := s.Solve()
	elapsed := time.Since(started)

	fields := logrus.Fields{
		"nodes":        result.Nodes,
		"propagations": result.Propagations,
		"restarts":     result.Restarts,
		"runtime":      elapsed,
	}
	if params.CountSolutions {
		fields["solutions"] = result.SolutionCount
	}

	switch {
	case err != nil:
		log.WithFields(fields).Warn("search aborted")
		return err
	case result.Complete:
		log.WithFields(fields).Info("satisfiable")
	default:
		log.WithFields(fields).Info("unsatisfiable")
	}

	if result.Complete && !params.CountSolutions {
		printMapping(pattern, target, result.Mapping)
		for _, extra := range result.Extra {
			log.Debug(extra)
		}
	}

	if !result.Complete {
		os.Exit(1)
	}
	return nil
}

func buildParams(opts *options) (homsearch.Params, error) {
	params := homsearch.Params{
		Induced:        opts.induced,
		CountSolutions: opts.count,
		Seed:           opts.seed,
	}

	switch opts.injectivity {
	case "injective":
		params.Injectivity = homsearch.Injective
	case "locally-injective":
		params.Injectivity = homsearch.LocallyInjective
	case "non-injective":
		params.Injectivity = homsearch.NonInjective
	default:
		return params, fmt.Errorf("unknown injectivity %q", opts.injectivity)
	}

	switch opts.valueOrdering {
	case "degree":
		params.ValueOrdering = homsearch.OrderByDegree
	case "antidegree":
		params.ValueOrdering = homsearch.OrderByAntiDegree
	case "biased":
		params.ValueOrdering = homsearch.OrderBiased
	case "random":
		params.ValueOrdering = homsearch.OrderRandom
	default:
		return params, fmt.Errorf("unknown value ordering %q", opts.valueOrdering)
	}

	switch opts.restarts {
	case "none":
		params.Restarts = schedule.NewNone()
	case "luby":
		params.Restarts = schedule.NewLuby(opts.lubyMult)
	case "geometric":
		params.Restarts = schedule.NewGeometric(1000, 1.5)
	case "timed":
		params.Restarts = schedule.NewTimed(schedule.DefaultTimedDuration)
	default:
		return params, fmt.Errorf("unknown restart schedule %q", opts.restarts)
	}

	if opts.timeout > 0 {
		params.Timeout = homsearch.DeadlineTimeout(opts.timeout)
	}

	return params, nil
}

func buildModelOptions(opts *options, injectivity homsearch.Injectivity, patternSize int) ([]model.Option, error) {
	modelOpts := []model.Option{model.WithInjectivity(injectivity)}
	if opts.supplemental {
		modelOpts = append(modelOpts, model.WithSupplementalGraphs())
	}
	if len(opts.lessThans) > 0 {
		pairs := make([][2]int, 0, len(opts.lessThans))
		for _, s := range opts.lessThans {
			pair, err := parseLessThan(s, patternSize)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, pair)
		}
		modelOpts = append(modelOpts, model.WithLessThans(pairs))
	}
	return modelOpts, nil
}

func printMapping(pattern, target *homsearch.Graph, mapping homsearch.VertexToVertexMapping) {
	vertices := make([]int, 0, len(mapping))
	for p := range mapping {
		vertices = append(vertices, p)
	}
	sort.Ints(vertices)
	for _, p := range vertices {
		fmt.Printf("%s -> %s\n", pattern.Name(p), target.Name(mapping[p]))
	}
}
