package root

import (
	"github.com/spf13/cobra"

	"github.com/graphsolvers/homsearch/cmd/solve"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "homsearch",
		Short: "homsearch is a subgraph isomorphism and homomorphism solver",
		Long: `A constraint-propagation solver deciding whether a pattern graph can
be mapped into a target graph, with injective, locally injective and
non-injective morphisms, induced and non-induced matching, directed
and edge-labelled graphs, and solution enumeration.`,
	}

	rootCmd.AddCommand(solve.NewSolveCommand())

	return rootCmd
}
