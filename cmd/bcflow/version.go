package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/bcflow/internal/version"
)

// NewVersionCmd returns the version command. Reports carry the same version
// string, and cached results are only reused by the build that wrote them.
func NewVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the bcflow build",
		Long: `Print the build of the structuring engine.

The version is also written into every structure report, so a report can be
matched to the engine that produced it. --short prints the version alone.

Examples:
  bcflow version
  bcflow version --short`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := version.Info()
			if short {
				out = version.Short()
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version")
	return cmd
}
