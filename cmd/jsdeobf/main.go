// Command jsdeobf deobfuscates JavaScript sources, generalizing the
// teacher's morfx query/transform CLI from "one DSL operation over one
// AST match" to "a fixed sequence of 19 passes over a whole program".
// Grounded on the teacher's demo/cmd cobra root+subcommand shape.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "jsdeobf",
		Short:         "Deobfuscate JavaScript sources",
		Long:          "jsdeobf runs a fixed pipeline of AST-level passes that undo common JavaScript obfuscation patterns: control-flow flattening, string-array encoding, proxy functions, dead code, and identifier mangling.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newBatchCmd())
	return root
}

// exitCodeFor maps an error to spec.md §6's exit code contract: 0 success,
// 2 parse error, 1 everything else (I/O, invariant violations).
func exitCodeFor(err error) int {
	if isParseError(err) {
		return 2
	}
	return 1
}
