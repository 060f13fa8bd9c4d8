package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxhq/jsdeobf/internal/config"
	"github.com/oxhq/jsdeobf/internal/diag"
)

func newRunCmd() *cobra.Command {
	var (
		output         string
		deobfuscate    bool
		indentSize     int
		indentWithTabs bool
		sourceMaps     bool
		showDiff       bool
		only           []string
		skip           []string
		cacheDSN       string
	)

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Deobfuscate a single file (or stdin, with \"-\")",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}

			source, filename, err := readSource(input)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			cfg := config.Load()
			if cmd.Flags().Changed("indent-size") {
				cfg.IndentSize = indentSize
			}
			if cmd.Flags().Changed("indent-with-tabs") {
				cfg.IndentWithTabs = indentWithTabs
			}

			opts := runOptions{
				cfg:         cfg,
				deobfuscate: deobfuscate,
				passFlags:   passFlags{only: only, skip: skip},
				sourceMaps:  sourceMaps,
				showDiff:    showDiff,
				cacheDSN:    cacheDSN,
			}

			printed, _, err := deobfuscateSource(context.Background(), opts, filename, source)
			if err != nil {
				return err
			}

			if showDiff {
				d, derr := diag.UnifiedDiff(string(source), printed, filename, 3)
				if derr != nil {
					return derr
				}
				fmt.Print(d)
				return nil
			}

			return writeOutput(output, printed)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&deobfuscate, "deobfuscate", true, "Run the deobfuscation pipeline (false: parse and reprint only)")
	cmd.Flags().IntVar(&indentSize, "indent-size", 2, "Printer indent width")
	cmd.Flags().BoolVar(&indentWithTabs, "indent-with-tabs", false, "Indent with tabs instead of spaces")
	cmd.Flags().BoolVar(&sourceMaps, "source-maps", false, "Emit a best-effort <input>.map sidecar")
	cmd.Flags().BoolVarP(&showDiff, "diff", "d", false, "Print a unified diff instead of the full output")
	cmd.Flags().StringSliceVar(&only, "only-pass", nil, "Run only the named pass(es) (repeatable; e.g. P1 or control-flow-unflatten)")
	cmd.Flags().StringSliceVar(&skip, "skip-pass", nil, "Skip the named pass(es) (repeatable)")
	cmd.Flags().StringVar(&cacheDSN, "cache", "", "sqlite file or libsql URL for the run cache (disabled if empty)")

	return cmd
}

// readSource reads input ("-" for stdin) and returns its bytes plus the
// display filename used in diagnostics and --source-maps output.
func readSource(input string) ([]byte, string, error) {
	if input == "-" {
		b, err := io.ReadAll(os.Stdin)
		return b, "stdin.js", err
	}
	b, err := os.ReadFile(input)
	return b, input, err
}

// writeOutput writes printed to path, or stdout if path is empty.
func writeOutput(path, printed string) error {
	if path == "" {
		_, err := fmt.Print(printed)
		return err
	}
	return os.WriteFile(path, []byte(printed), 0o644)
}
