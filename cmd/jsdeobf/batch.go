package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/oxhq/jsdeobf/internal/config"
)

// newBatchCmd implements the batch-mode supplemented feature (SPEC_FULL.md
// §4): run the pipeline over every file a doublestar glob matches, writing
// either `<name>.deobf.js` siblings or files under an output directory.
func newBatchCmd() *cobra.Command {
	var (
		outputDir      string
		deobfuscate    bool
		indentSize     int
		indentWithTabs bool
		only           []string
		skip           []string
		cacheDSN       string
	)

	cmd := &cobra.Command{
		Use:   "batch <glob>",
		Short: "Deobfuscate every file matched by a glob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := doublestar.FilepathGlob(args[0])
			if err != nil {
				return fmt.Errorf("expanding glob: %w", err)
			}
			if len(matches) == 0 {
				return fmt.Errorf("no files matched %q", args[0])
			}

			cfg := config.Load()
			if cmd.Flags().Changed("indent-size") {
				cfg.IndentSize = indentSize
			}
			if cmd.Flags().Changed("indent-with-tabs") {
				cfg.IndentWithTabs = indentWithTabs
			}

			if outputDir != "" {
				if err := os.MkdirAll(outputDir, 0o755); err != nil {
					return fmt.Errorf("creating output dir: %w", err)
				}
			}

			opts := runOptions{
				cfg:         cfg,
				deobfuscate: deobfuscate,
				passFlags:   passFlags{only: only, skip: skip},
				cacheDSN:    cacheDSN,
			}

			var failed int
			for _, path := range matches {
				if err := runBatchFile(cmd, opts, path, outputDir); err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed", failed, len(matches))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Write outputs under this directory instead of <name>.deobf.js siblings")
	cmd.Flags().BoolVar(&deobfuscate, "deobfuscate", true, "Run the deobfuscation pipeline (false: parse and reprint only)")
	cmd.Flags().IntVar(&indentSize, "indent-size", 2, "Printer indent width")
	cmd.Flags().BoolVar(&indentWithTabs, "indent-with-tabs", false, "Indent with tabs instead of spaces")
	cmd.Flags().StringSliceVar(&only, "only-pass", nil, "Run only the named pass(es) (repeatable)")
	cmd.Flags().StringSliceVar(&skip, "skip-pass", nil, "Skip the named pass(es) (repeatable)")
	cmd.Flags().StringVar(&cacheDSN, "cache", "", "sqlite file or libsql URL for the run cache (disabled if empty)")

	return cmd
}

func runBatchFile(cmd *cobra.Command, opts runOptions, path, outputDir string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	printed, _, err := deobfuscateSource(context.Background(), opts, path, source)
	if err != nil {
		return err
	}

	dest := siblingOutputPath(path, outputDir)
	if outputDir != "" {
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(dest, []byte(printed), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", path, dest)
	return nil
}

// siblingOutputPath derives a batch output path: <name>.deobf.js next to
// the input, or the same relative name under outputDir.
func siblingOutputPath(path, outputDir string) string {
	if outputDir != "" {
		return filepath.Join(outputDir, path)
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + ".deobf" + ext
}
