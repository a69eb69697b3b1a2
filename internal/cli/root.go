// Package cli wires the codemend commands together.
package cli

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/codemend/internal/config"
	"github.com/sprite-ai/codemend/internal/detect"
	"github.com/sprite-ai/codemend/internal/source"
)

var rootCmd = &cobra.Command{
	Use:   "codemend",
	Short: "Find and repair machine-introduced code defects",
	Long: `codemend scans source trees for defects typical of machine-generated
code: hallucinated packages and APIs, deprecated calls, quality smells,
security anti-patterns, and performance traps. Findings can be repaired
with mechanical or LLM-suggested fixes, applied transactionally with
snapshots, and validated by your project's own checks.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(scanCmd, fixCmd, restoreCmd, versionCmd)
}

func newLogger(cmd *cobra.Command) hclog.Logger {
	level := hclog.Warn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "codemend",
		Level:  level,
		Output: os.Stderr,
	})
}

// loadConfig resolves config for the given scan root with CLI overrides.
func loadConfig(repoRoot string, overrides *config.Overrides) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		RepoRoot:  repoRoot,
		Overrides: overrides,
	})
}

// collectFiles loads the files to analyze: staged changes or all git-tracked
// files when requested, otherwise the given paths (default current directory).
func collectFiles(paths []string, staged, tracked bool) ([]source.File, string, error) {
	root, err := source.RepoRoot()
	if err != nil {
		root = "."
	}

	switch {
	case staged:
		files, err := source.LoadStaged(root)
		return files, root, err
	case tracked:
		files, err := source.LoadTracked(root)
		return files, root, err
	}

	if len(paths) == 0 {
		paths = []string{"."}
	}
	files, err := source.LoadPaths(paths)
	return files, root, err
}

// filterAnalyzers drops analyzers named in skip.
func filterAnalyzers(all []detect.Analyzer, skip []string) []detect.Analyzer {
	if len(skip) == 0 {
		return all
	}
	skipSet := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}
	var kept []detect.Analyzer
	for _, a := range all {
		if !skipSet[a.Name()] {
			kept = append(kept, a)
		}
	}
	return kept
}
