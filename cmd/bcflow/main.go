package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/bcflow/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "bcflow",
	Short: "Recover structured control flow from Java bytecode",
	Long: `bcflow rebuilds Java-like source structure from decoded bytecode methods.

It reduces each method's control-flow graph with T1/T2 interval analysis and
recognises the idioms javac emits:
  • if/else chains, while, do-while and for loops with break/continue
  • try/catch, synchronized blocks and finally subroutines
  • combined && / || conditions and negated branches

Methods are read from .yaml, .yml or .json method files.`,
	Version:       version.Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewStructureCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
