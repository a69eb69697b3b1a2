package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/codemend/internal/detect"
	"github.com/sprite-ai/codemend/internal/model"
	"github.com/sprite-ai/codemend/internal/registry"
)

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Analyze sources and report findings (non-interactive)",
	Long: `Run all analyzers over the given paths (default: current directory)
and print a report. Useful for CI and pre-commit hooks.

Exit codes:
  0 — clean, no findings
  1 — findings below high severity
  2 — high or critical findings`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown")
	scanCmd.Flags().Bool("staged", false, "analyze staged git changes only")
	scanCmd.Flags().Bool("tracked", false, "analyze all git-tracked files")
	scanCmd.Flags().StringSlice("skip", nil, "analyzers to skip")
	scanCmd.Flags().Bool("no-registry", false, "skip package registry lookups")
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	staged, _ := cmd.Flags().GetBool("staged")
	tracked, _ := cmd.Flags().GetBool("tracked")
	files, root, err := collectFiles(args, staged, tracked)
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No files to scan.")
		return nil
	}

	skip, _ := cmd.Flags().GetStringSlice("skip")
	cfg, err := loadConfig(root, nil)
	if err != nil {
		return err
	}
	if len(skip) == 0 {
		skip = cfg.SkipAnalyzers
	}

	var reg detect.RegistryLookup
	if noReg, _ := cmd.Flags().GetBool("no-registry"); !noReg {
		cache := registry.NewCache(cfg.RegistryTTL, nil)
		reg = registry.NewClient(cache, logger)
	}

	analyzers := filterAnalyzers(detect.AllAnalyzers(reg), skip)
	fmt.Fprintf(os.Stderr, "Scanning %d file(s) with %d analyzer(s)...\n", len(files), len(analyzers))

	report := detect.Run(cmd.Context(), analyzers, files, logger)

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		if err := outputJSON(report); err != nil {
			return err
		}
	case "markdown":
		outputMarkdown(report, len(files))
	default:
		outputText(report, len(files))
	}

	// Exit code communicates the worst finding to CI.
	if len(report.Findings) > 0 {
		if report.MaxSeverity() >= model.SeverityHigh {
			os.Exit(2)
		}
		os.Exit(1)
	}
	return nil
}

func outputJSON(report *model.AnalysisReport) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func outputMarkdown(report *model.AnalysisReport, nFiles int) {
	fmt.Printf("## Scan Report\n\n")
	fmt.Printf("**%d file(s)** analyzed | **Findings:** %d | **Max severity:** %s\n\n",
		nFiles, len(report.Findings), report.MaxSeverity())

	if len(report.Findings) == 0 {
		fmt.Println("No issues found.")
		return
	}

	fmt.Println("| Severity | Category | Location | Message |")
	fmt.Println("|----------|----------|----------|---------|")
	for _, f := range report.Findings {
		loc := f.FilePath
		if loc == "" {
			loc = "(pipeline)"
		} else if f.Line > 0 {
			loc = fmt.Sprintf("%s:%d", f.FilePath, f.Line)
		}
		fmt.Printf("| %s | %s | `%s` | %s |\n", f.Severity, f.Category, loc, f.Message)
	}
}
